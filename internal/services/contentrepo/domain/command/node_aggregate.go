package command

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

const (
	TypeCreateRootNodeAggregateWithNode Type = "CreateRootNodeAggregateWithNode"
	TypeCreateNodeAggregateWithNode     Type = "CreateNodeAggregateWithNode"
	TypeSetSerializedNodeProperties     Type = "SetSerializedNodeProperties"
	TypeSetSerializedNodeReferences     Type = "SetSerializedNodeReferences"
	TypeDisableNodeAggregate            Type = "DisableNodeAggregate"
	TypeEnableNodeAggregate             Type = "EnableNodeAggregate"
	TypeRemoveNodeAggregate             Type = "RemoveNodeAggregate"
	TypeCreateNodeVariant               Type = "CreateNodeVariant"
	TypeChangeNodeAggregateName         Type = "ChangeNodeAggregateName"
	TypeChangeNodeAggregateType         Type = "ChangeNodeAggregateType"
	TypeMoveNodeAggregate               Type = "MoveNodeAggregate"
	TypeTagSubtree                      Type = "TagSubtree"
	TypeUntagSubtree                    Type = "UntagSubtree"
)

// CreateRootNodeAggregateWithNode creates a root aggregate covering the whole
// allowed dimension subspace.
type CreateRootNodeAggregateWithNode struct {
	ContentStreamID                    node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID                    node.NodeAggregateID             `json:"nodeAggregateId"`
	NodeTypeName                       node.NodeTypeName                `json:"nodeTypeName"`
	TetheredDescendantNodeAggregateIDs node.NodeAggregateIDsByNodePaths `json:"tetheredDescendantNodeAggregateIds,omitempty"`
}

// CreateNodeAggregateWithNode creates a regular aggregate below a parent.
type CreateNodeAggregateWithNode struct {
	ContentStreamID                    node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID                    node.NodeAggregateID                `json:"nodeAggregateId"`
	NodeTypeName                       node.NodeTypeName                   `json:"nodeTypeName"`
	OriginDimensionSpacePoint          dimension.OriginDimensionSpacePoint `json:"originDimensionSpacePoint"`
	ParentNodeAggregateID              node.NodeAggregateID                `json:"parentNodeAggregateId"`
	NodeName                           node.NodeName                       `json:"nodeName,omitempty"`
	InitialPropertyValues              node.SerializedPropertyValues       `json:"initialPropertyValues,omitempty"`
	TetheredDescendantNodeAggregateIDs node.NodeAggregateIDsByNodePaths    `json:"tetheredDescendantNodeAggregateIds,omitempty"`
}

// SetSerializedNodeProperties writes property values authored in one origin.
// A nil value unsets the property.
type SetSerializedNodeProperties struct {
	ContentStreamID           node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID           node.NodeAggregateID                `json:"nodeAggregateId"`
	OriginDimensionSpacePoint dimension.OriginDimensionSpacePoint `json:"originDimensionSpacePoint"`
	PropertyValues            node.SerializedPropertyValues       `json:"propertyValues"`
}

// SetSerializedNodeReferences replaces one reference of a node.
type SetSerializedNodeReferences struct {
	ContentStreamID                 node.ContentStreamID                `json:"contentStreamId"`
	SourceNodeAggregateID           node.NodeAggregateID                `json:"sourceNodeAggregateId"`
	SourceOriginDimensionSpacePoint dimension.OriginDimensionSpacePoint `json:"sourceOriginDimensionSpacePoint"`
	ReferenceName                   node.ReferenceName                  `json:"referenceName"`
	References                      node.NodeReferencesToWrite          `json:"references"`
}

// DisableNodeAggregate tags the aggregate as disabled.
type DisableNodeAggregate struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	CoveredDimensionSpacePoint   dimension.DimensionSpacePoint     `json:"coveredDimensionSpacePoint"`
	NodeVariantSelectionStrategy node.NodeVariantSelectionStrategy `json:"nodeVariantSelectionStrategy"`
}

// EnableNodeAggregate removes the disabled tag.
type EnableNodeAggregate struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	CoveredDimensionSpacePoint   dimension.DimensionSpacePoint     `json:"coveredDimensionSpacePoint"`
	NodeVariantSelectionStrategy node.NodeVariantSelectionStrategy `json:"nodeVariantSelectionStrategy"`
}

// RemoveNodeAggregate removes the aggregate and its descendants from the
// selected points.
type RemoveNodeAggregate struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	CoveredDimensionSpacePoint   dimension.DimensionSpacePoint     `json:"coveredDimensionSpacePoint"`
	NodeVariantSelectionStrategy node.NodeVariantSelectionStrategy `json:"nodeVariantSelectionStrategy"`
}

// CreateNodeVariant copies the node of SourceOrigin into TargetOrigin.
type CreateNodeVariant struct {
	ContentStreamID node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID node.NodeAggregateID                `json:"nodeAggregateId"`
	SourceOrigin    dimension.OriginDimensionSpacePoint `json:"sourceOrigin"`
	TargetOrigin    dimension.OriginDimensionSpacePoint `json:"targetOrigin"`
}

// ChangeNodeAggregateName renames the aggregate.
type ChangeNodeAggregateName struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
	NodeAggregateID node.NodeAggregateID `json:"nodeAggregateId"`
	NewNodeName     node.NodeName        `json:"newNodeName"`
}

// ChangeNodeAggregateType retypes the aggregate.
type ChangeNodeAggregateType struct {
	ContentStreamID                    node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID                    node.NodeAggregateID             `json:"nodeAggregateId"`
	NewNodeTypeName                    node.NodeTypeName                `json:"newNodeTypeName"`
	Strategy                           TypeChangeStrategy               `json:"strategy"`
	TetheredDescendantNodeAggregateIDs node.NodeAggregateIDsByNodePaths `json:"tetheredDescendantNodeAggregateIds,omitempty"`
}

// MoveNodeAggregate attaches the aggregate to a new parent.
type MoveNodeAggregate struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	DimensionSpacePoint          dimension.DimensionSpacePoint     `json:"dimensionSpacePoint"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	NewParentNodeAggregateID     node.NodeAggregateID              `json:"newParentNodeAggregateId"`
	RelationDistributionStrategy node.RelationDistributionStrategy `json:"relationDistributionStrategy"`
}

// TagSubtree adds an explicit tag to the aggregate.
type TagSubtree struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	CoveredDimensionSpacePoint   dimension.DimensionSpacePoint     `json:"coveredDimensionSpacePoint"`
	NodeVariantSelectionStrategy node.NodeVariantSelectionStrategy `json:"nodeVariantSelectionStrategy"`
	Tag                          node.SubtreeTag                   `json:"tag"`
}

// UntagSubtree removes an explicit tag from the aggregate.
type UntagSubtree struct {
	ContentStreamID              node.ContentStreamID              `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID              `json:"nodeAggregateId"`
	CoveredDimensionSpacePoint   dimension.DimensionSpacePoint     `json:"coveredDimensionSpacePoint"`
	NodeVariantSelectionStrategy node.NodeVariantSelectionStrategy `json:"nodeVariantSelectionStrategy"`
	Tag                          node.SubtreeTag                   `json:"tag"`
}

func (CreateRootNodeAggregateWithNode) CommandType() Type { return TypeCreateRootNodeAggregateWithNode }
func (CreateNodeAggregateWithNode) CommandType() Type     { return TypeCreateNodeAggregateWithNode }
func (SetSerializedNodeProperties) CommandType() Type     { return TypeSetSerializedNodeProperties }
func (SetSerializedNodeReferences) CommandType() Type     { return TypeSetSerializedNodeReferences }
func (DisableNodeAggregate) CommandType() Type            { return TypeDisableNodeAggregate }
func (EnableNodeAggregate) CommandType() Type             { return TypeEnableNodeAggregate }
func (RemoveNodeAggregate) CommandType() Type             { return TypeRemoveNodeAggregate }
func (CreateNodeVariant) CommandType() Type               { return TypeCreateNodeVariant }
func (ChangeNodeAggregateName) CommandType() Type         { return TypeChangeNodeAggregateName }
func (ChangeNodeAggregateType) CommandType() Type         { return TypeChangeNodeAggregateType }
func (MoveNodeAggregate) CommandType() Type               { return TypeMoveNodeAggregate }
func (TagSubtree) CommandType() Type                      { return TypeTagSubtree }
func (UntagSubtree) CommandType() Type                    { return TypeUntagSubtree }

func (CreateRootNodeAggregateWithNode) command() {}
func (CreateNodeAggregateWithNode) command()     {}
func (SetSerializedNodeProperties) command()     {}
func (SetSerializedNodeReferences) command()     {}
func (DisableNodeAggregate) command()            {}
func (EnableNodeAggregate) command()             {}
func (RemoveNodeAggregate) command()             {}
func (CreateNodeVariant) command()               {}
func (ChangeNodeAggregateName) command()         {}
func (ChangeNodeAggregateType) command()         {}
func (MoveNodeAggregate) command()               {}
func (TagSubtree) command()                      {}
func (UntagSubtree) command()                    {}

func (c CreateRootNodeAggregateWithNode) StreamID() node.ContentStreamID { return c.ContentStreamID }
func (c CreateNodeAggregateWithNode) StreamID() node.ContentStreamID     { return c.ContentStreamID }
func (c SetSerializedNodeProperties) StreamID() node.ContentStreamID     { return c.ContentStreamID }
func (c SetSerializedNodeReferences) StreamID() node.ContentStreamID     { return c.ContentStreamID }
func (c DisableNodeAggregate) StreamID() node.ContentStreamID            { return c.ContentStreamID }
func (c EnableNodeAggregate) StreamID() node.ContentStreamID             { return c.ContentStreamID }
func (c RemoveNodeAggregate) StreamID() node.ContentStreamID             { return c.ContentStreamID }
func (c CreateNodeVariant) StreamID() node.ContentStreamID               { return c.ContentStreamID }
func (c ChangeNodeAggregateName) StreamID() node.ContentStreamID         { return c.ContentStreamID }
func (c ChangeNodeAggregateType) StreamID() node.ContentStreamID         { return c.ContentStreamID }
func (c MoveNodeAggregate) StreamID() node.ContentStreamID               { return c.ContentStreamID }
func (c TagSubtree) StreamID() node.ContentStreamID                      { return c.ContentStreamID }
func (c UntagSubtree) StreamID() node.ContentStreamID                    { return c.ContentStreamID }

func (c CreateRootNodeAggregateWithNode) AggregateID() node.NodeAggregateID { return c.NodeAggregateID }
func (c CreateNodeAggregateWithNode) AggregateID() node.NodeAggregateID     { return c.NodeAggregateID }
func (c SetSerializedNodeProperties) AggregateID() node.NodeAggregateID     { return c.NodeAggregateID }
func (c SetSerializedNodeReferences) AggregateID() node.NodeAggregateID {
	return c.SourceNodeAggregateID
}
func (c DisableNodeAggregate) AggregateID() node.NodeAggregateID    { return c.NodeAggregateID }
func (c EnableNodeAggregate) AggregateID() node.NodeAggregateID     { return c.NodeAggregateID }
func (c RemoveNodeAggregate) AggregateID() node.NodeAggregateID     { return c.NodeAggregateID }
func (c CreateNodeVariant) AggregateID() node.NodeAggregateID       { return c.NodeAggregateID }
func (c ChangeNodeAggregateName) AggregateID() node.NodeAggregateID { return c.NodeAggregateID }
func (c ChangeNodeAggregateType) AggregateID() node.NodeAggregateID { return c.NodeAggregateID }
func (c MoveNodeAggregate) AggregateID() node.NodeAggregateID       { return c.NodeAggregateID }
func (c TagSubtree) AggregateID() node.NodeAggregateID              { return c.NodeAggregateID }
func (c UntagSubtree) AggregateID() node.NodeAggregateID            { return c.NodeAggregateID }

func (c CreateRootNodeAggregateWithNode) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c CreateNodeAggregateWithNode) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c SetSerializedNodeProperties) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c SetSerializedNodeReferences) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c DisableNodeAggregate) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c EnableNodeAggregate) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c RemoveNodeAggregate) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c CreateNodeVariant) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c ChangeNodeAggregateName) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c ChangeNodeAggregateType) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c MoveNodeAggregate) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c TagSubtree) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

func (c UntagSubtree) CopyForContentStream(id node.ContentStreamID) NodeCommand {
	c.ContentStreamID = id
	return c
}

// Root aggregates, renames and retypes are not bound to a point: they match
// any selector naming the aggregate.

func (c CreateRootNodeAggregateWithNode) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.ContentStreamID == c.ContentStreamID && sel.NodeAggregateID == c.NodeAggregateID
}

func (c CreateNodeAggregateWithNode) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.OriginDimensionSpacePoint.ToDimensionSpacePoint())
}

func (c SetSerializedNodeProperties) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.OriginDimensionSpacePoint.ToDimensionSpacePoint())
}

func (c SetSerializedNodeReferences) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.SourceNodeAggregateID, c.SourceOriginDimensionSpacePoint.ToDimensionSpacePoint())
}

func (c DisableNodeAggregate) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint)
}

func (c EnableNodeAggregate) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint)
}

func (c RemoveNodeAggregate) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint)
}

func (c CreateNodeVariant) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.TargetOrigin.ToDimensionSpacePoint())
}

func (c ChangeNodeAggregateName) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.ContentStreamID == c.ContentStreamID && sel.NodeAggregateID == c.NodeAggregateID
}

func (c ChangeNodeAggregateType) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.ContentStreamID == c.ContentStreamID && sel.NodeAggregateID == c.NodeAggregateID
}

func (c MoveNodeAggregate) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.DimensionSpacePoint)
}

func (c TagSubtree) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint)
}

func (c UntagSubtree) MatchesNodeID(sel node.NodeIDToPublishOrDiscard) bool {
	return sel.Matches(c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint)
}

func (c CreateRootNodeAggregateWithNode) Validate() error {
	return required(TypeCreateRootNodeAggregateWithNode,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)},
		field{"nodeTypeName", string(c.NodeTypeName)})
}

func (c CreateNodeAggregateWithNode) Validate() error {
	return required(TypeCreateNodeAggregateWithNode,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)},
		field{"nodeTypeName", string(c.NodeTypeName)},
		field{"parentNodeAggregateId", string(c.ParentNodeAggregateID)})
}

func (c SetSerializedNodeProperties) Validate() error {
	return required(TypeSetSerializedNodeProperties,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)})
}

func (c SetSerializedNodeReferences) Validate() error {
	return required(TypeSetSerializedNodeReferences,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"sourceNodeAggregateId", string(c.SourceNodeAggregateID)},
		field{"referenceName", string(c.ReferenceName)})
}

func (c DisableNodeAggregate) Validate() error {
	return validateSelection(TypeDisableNodeAggregate, c.ContentStreamID, c.NodeAggregateID, c.NodeVariantSelectionStrategy)
}

func (c EnableNodeAggregate) Validate() error {
	return validateSelection(TypeEnableNodeAggregate, c.ContentStreamID, c.NodeAggregateID, c.NodeVariantSelectionStrategy)
}

func (c RemoveNodeAggregate) Validate() error {
	return validateSelection(TypeRemoveNodeAggregate, c.ContentStreamID, c.NodeAggregateID, c.NodeVariantSelectionStrategy)
}

func (c CreateNodeVariant) Validate() error {
	return required(TypeCreateNodeVariant,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)})
}

func (c ChangeNodeAggregateName) Validate() error {
	return required(TypeChangeNodeAggregateName,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)},
		field{"newNodeName", string(c.NewNodeName)})
}

func (c ChangeNodeAggregateType) Validate() error {
	if err := required(TypeChangeNodeAggregateType,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)},
		field{"newNodeTypeName", string(c.NewNodeTypeName)}); err != nil {
		return err
	}
	switch c.Strategy {
	case "", TypeChangeHappyPath, TypeChangeDelete:
		return nil
	default:
		return invalid(TypeChangeNodeAggregateType, "strategy", "is unknown")
	}
}

func (c MoveNodeAggregate) Validate() error {
	if err := required(TypeMoveNodeAggregate,
		field{"contentStreamId", string(c.ContentStreamID)},
		field{"nodeAggregateId", string(c.NodeAggregateID)}); err != nil {
		return err
	}
	switch c.RelationDistributionStrategy {
	case "", node.RelationDistributionScatter, node.RelationDistributionGatherSpecializations, node.RelationDistributionGatherAll:
		return nil
	default:
		return invalid(TypeMoveNodeAggregate, "relationDistributionStrategy", "is unknown")
	}
}

func (c TagSubtree) Validate() error {
	if err := validateSelection(TypeTagSubtree, c.ContentStreamID, c.NodeAggregateID, c.NodeVariantSelectionStrategy); err != nil {
		return err
	}
	return required(TypeTagSubtree, field{"tag", string(c.Tag)})
}

func (c UntagSubtree) Validate() error {
	if err := validateSelection(TypeUntagSubtree, c.ContentStreamID, c.NodeAggregateID, c.NodeVariantSelectionStrategy); err != nil {
		return err
	}
	return required(TypeUntagSubtree, field{"tag", string(c.Tag)})
}

func validateSelection(cmd Type, cs node.ContentStreamID, id node.NodeAggregateID, strategy node.NodeVariantSelectionStrategy) error {
	if err := required(cmd,
		field{"contentStreamId", string(cs)},
		field{"nodeAggregateId", string(id)}); err != nil {
		return err
	}
	switch strategy {
	case "", node.VariantSelectionAllVariants, node.VariantSelectionAllSpecializations:
		return nil
	default:
		return invalid(cmd, "nodeVariantSelectionStrategy", "is unknown")
	}
}
