package node

import "fmt"

// Classification is shared by every node of an aggregate.
type Classification string

const (
	ClassificationRoot     Classification = "root"
	ClassificationTethered Classification = "tethered"
	ClassificationRegular  Classification = "regular"
)

// IsRoot reports whether the classification is root.
func (c Classification) IsRoot() bool { return c == ClassificationRoot }

// IsTethered reports whether the classification is tethered.
func (c Classification) IsTethered() bool { return c == ClassificationTethered }

// Validate rejects unknown classifications.
func (c Classification) Validate() error {
	switch c {
	case ClassificationRoot, ClassificationTethered, ClassificationRegular:
		return nil
	default:
		return fmt.Errorf("unknown node aggregate classification %q", string(c))
	}
}

// SubtreeTag labels a node and, implicitly, all its descendants.
type SubtreeTag string

// SubtreeTagDisabled is the tag written by disabling a node aggregate.
const SubtreeTagDisabled SubtreeTag = "disabled"

// SubtreeTags holds the tags of a node in one dimension space point.
type SubtreeTags struct {
	Explicit  []SubtreeTag `json:"explicit"`
	Inherited []SubtreeTag `json:"inherited"`
}

// Contains reports whether tag is set explicitly or inherited.
func (t SubtreeTags) Contains(tag SubtreeTag) bool {
	for _, explicit := range t.Explicit {
		if explicit == tag {
			return true
		}
	}
	for _, inherited := range t.Inherited {
		if inherited == tag {
			return true
		}
	}
	return false
}

// PropertyScope decides which origins of an aggregate a property write touches.
type PropertyScope string

const (
	PropertyScopeNode            PropertyScope = "node"
	PropertyScopeSpecializations PropertyScope = "specializations"
	PropertyScopeNodeAggregate   PropertyScope = "nodeAggregate"
)

// Validate rejects unknown scopes. An empty scope means node.
func (s PropertyScope) Validate() error {
	switch s {
	case "", PropertyScopeNode, PropertyScopeSpecializations, PropertyScopeNodeAggregate:
		return nil
	default:
		return fmt.Errorf("unknown property scope %q", string(s))
	}
}

// NodeVariantSelectionStrategy selects which variants of an aggregate a
// command touches.
type NodeVariantSelectionStrategy string

const (
	VariantSelectionAllVariants        NodeVariantSelectionStrategy = "allVariants"
	VariantSelectionAllSpecializations NodeVariantSelectionStrategy = "allSpecializations"
)

// RelationDistributionStrategy decides how a move affects variants.
type RelationDistributionStrategy string

const (
	RelationDistributionScatter               RelationDistributionStrategy = "scatter"
	RelationDistributionGatherSpecializations RelationDistributionStrategy = "gatherSpecializations"
	RelationDistributionGatherAll             RelationDistributionStrategy = "gatherAll"
)
