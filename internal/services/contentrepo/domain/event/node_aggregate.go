package event

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

const (
	TypeRootNodeAggregateWithNodeWasCreated Type = "RootNodeAggregateWithNodeWasCreated"
	TypeNodeAggregateWithNodeWasCreated     Type = "NodeAggregateWithNodeWasCreated"
	TypeNodePropertiesWereSet               Type = "NodePropertiesWereSet"
	TypeNodeReferencesWereSet               Type = "NodeReferencesWereSet"
	TypeNodeAggregateWasDisabled            Type = "NodeAggregateWasDisabled"
	TypeNodeAggregateWasEnabled             Type = "NodeAggregateWasEnabled"
	TypeNodeAggregateWasRemoved             Type = "NodeAggregateWasRemoved"
	TypeNodeSpecializationVariantWasCreated Type = "NodeSpecializationVariantWasCreated"
	TypeNodeGeneralizationVariantWasCreated Type = "NodeGeneralizationVariantWasCreated"
	TypeNodePeerVariantWasCreated           Type = "NodePeerVariantWasCreated"
	TypeNodeAggregateNameWasChanged         Type = "NodeAggregateNameWasChanged"
	TypeNodeAggregateTypeWasChanged         Type = "NodeAggregateTypeWasChanged"
	TypeNodeAggregateWasMoved               Type = "NodeAggregateWasMoved"
	TypeSubtreeWasTagged                    Type = "SubtreeWasTagged"
	TypeSubtreeWasUntagged                  Type = "SubtreeWasUntagged"
)

// RootNodeAggregateWithNodeWasCreated creates a root aggregate covering every
// allowed dimension space point.
type RootNodeAggregateWithNodeWasCreated struct {
	ContentStreamID             node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID             node.NodeAggregateID             `json:"nodeAggregateId"`
	NodeTypeName                node.NodeTypeName                `json:"nodeTypeName"`
	CoveredDimensionSpacePoints dimension.DimensionSpacePointSet `json:"coveredDimensionSpacePoints"`
	NodeAggregateClassification node.Classification              `json:"nodeAggregateClassification"`
}

// NodeAggregateWithNodeWasCreated creates an aggregate with its first node.
type NodeAggregateWithNodeWasCreated struct {
	ContentStreamID             node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID             node.NodeAggregateID                `json:"nodeAggregateId"`
	NodeTypeName                node.NodeTypeName                   `json:"nodeTypeName"`
	OriginDimensionSpacePoint   dimension.OriginDimensionSpacePoint `json:"originDimensionSpacePoint"`
	CoveredDimensionSpacePoints dimension.DimensionSpacePointSet    `json:"coveredDimensionSpacePoints"`
	ParentNodeAggregateID       node.NodeAggregateID                `json:"parentNodeAggregateId"`
	NodeName                    node.NodeName                       `json:"nodeName,omitempty"`
	InitialPropertyValues       node.SerializedPropertyValues       `json:"initialPropertyValues"`
	NodeAggregateClassification node.Classification                 `json:"nodeAggregateClassification"`
}

// NodePropertiesWereSet sets or unsets properties of the node in one origin.
type NodePropertiesWereSet struct {
	ContentStreamID              node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID                `json:"nodeAggregateId"`
	OriginDimensionSpacePoint    dimension.OriginDimensionSpacePoint `json:"originDimensionSpacePoint"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet    `json:"affectedDimensionSpacePoints"`
	PropertyValues               node.SerializedPropertyValues       `json:"propertyValues"`
}

// NodeReferencesWereSet replaces one reference of the nodes in the affected
// origins.
type NodeReferencesWereSet struct {
	ContentStreamID                          node.ContentStreamID                   `json:"contentStreamId"`
	SourceNodeAggregateID                    node.NodeAggregateID                   `json:"sourceNodeAggregateId"`
	AffectedSourceOriginDimensionSpacePoints dimension.OriginDimensionSpacePointSet `json:"affectedSourceOriginDimensionSpacePoints"`
	ReferenceName                            node.ReferenceName                     `json:"referenceName"`
	References                               node.NodeReferencesToWrite             `json:"references"`
}

// NodeAggregateWasDisabled tags the aggregate as disabled in the affected
// points.
type NodeAggregateWasDisabled struct {
	ContentStreamID              node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID             `json:"nodeAggregateId"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet `json:"affectedDimensionSpacePoints"`
}

// NodeAggregateWasEnabled removes the disabled tag in the affected points.
type NodeAggregateWasEnabled struct {
	ContentStreamID              node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID             `json:"nodeAggregateId"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet `json:"affectedDimensionSpacePoints"`
}

// NodeAggregateWasRemoved narrows the coverage of an aggregate and its
// descendants.
type NodeAggregateWasRemoved struct {
	ContentStreamID                      node.ContentStreamID                   `json:"contentStreamId"`
	NodeAggregateID                      node.NodeAggregateID                   `json:"nodeAggregateId"`
	AffectedOccupiedDimensionSpacePoints dimension.OriginDimensionSpacePointSet `json:"affectedOccupiedDimensionSpacePoints"`
	AffectedCoveredDimensionSpacePoints  dimension.DimensionSpacePointSet       `json:"affectedCoveredDimensionSpacePoints"`
}

// NodeSpecializationVariantWasCreated copies a node into a specialization.
type NodeSpecializationVariantWasCreated struct {
	ContentStreamID        node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID        node.NodeAggregateID                `json:"nodeAggregateId"`
	SourceOrigin           dimension.OriginDimensionSpacePoint `json:"sourceOrigin"`
	SpecializationOrigin   dimension.OriginDimensionSpacePoint `json:"specializationOrigin"`
	SpecializationCoverage dimension.DimensionSpacePointSet    `json:"specializationCoverage"`
}

// NodeGeneralizationVariantWasCreated copies a node into a generalization.
type NodeGeneralizationVariantWasCreated struct {
	ContentStreamID        node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID        node.NodeAggregateID                `json:"nodeAggregateId"`
	SourceOrigin           dimension.OriginDimensionSpacePoint `json:"sourceOrigin"`
	GeneralizationOrigin   dimension.OriginDimensionSpacePoint `json:"generalizationOrigin"`
	GeneralizationCoverage dimension.DimensionSpacePointSet    `json:"generalizationCoverage"`
}

// NodePeerVariantWasCreated copies a node into a peer point.
type NodePeerVariantWasCreated struct {
	ContentStreamID node.ContentStreamID                `json:"contentStreamId"`
	NodeAggregateID node.NodeAggregateID                `json:"nodeAggregateId"`
	SourceOrigin    dimension.OriginDimensionSpacePoint `json:"sourceOrigin"`
	PeerOrigin      dimension.OriginDimensionSpacePoint `json:"peerOrigin"`
	PeerCoverage    dimension.DimensionSpacePointSet    `json:"peerCoverage"`
}

// NodeAggregateNameWasChanged renames every node of an aggregate.
type NodeAggregateNameWasChanged struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
	NodeAggregateID node.NodeAggregateID `json:"nodeAggregateId"`
	NewNodeName     node.NodeName        `json:"newNodeName"`
}

// NodeAggregateTypeWasChanged retypes every node of an aggregate.
type NodeAggregateTypeWasChanged struct {
	ContentStreamID node.ContentStreamID `json:"contentStreamId"`
	NodeAggregateID node.NodeAggregateID `json:"nodeAggregateId"`
	NewNodeTypeName node.NodeTypeName    `json:"newNodeTypeName"`
}

// NodeAggregateWasMoved attaches the aggregate to a new parent in the
// affected points.
type NodeAggregateWasMoved struct {
	ContentStreamID              node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID             `json:"nodeAggregateId"`
	NewParentNodeAggregateID     node.NodeAggregateID             `json:"newParentNodeAggregateId"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet `json:"affectedDimensionSpacePoints"`
}

// SubtreeWasTagged sets an explicit tag in the affected points.
type SubtreeWasTagged struct {
	ContentStreamID              node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID             `json:"nodeAggregateId"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet `json:"affectedDimensionSpacePoints"`
	Tag                          node.SubtreeTag                  `json:"tag"`
}

// SubtreeWasUntagged removes an explicit tag in the affected points.
type SubtreeWasUntagged struct {
	ContentStreamID              node.ContentStreamID             `json:"contentStreamId"`
	NodeAggregateID              node.NodeAggregateID             `json:"nodeAggregateId"`
	AffectedDimensionSpacePoints dimension.DimensionSpacePointSet `json:"affectedDimensionSpacePoints"`
	Tag                          node.SubtreeTag                  `json:"tag"`
}

func (RootNodeAggregateWithNodeWasCreated) EventType() Type {
	return TypeRootNodeAggregateWithNodeWasCreated
}
func (NodeAggregateWithNodeWasCreated) EventType() Type { return TypeNodeAggregateWithNodeWasCreated }
func (NodePropertiesWereSet) EventType() Type           { return TypeNodePropertiesWereSet }
func (NodeReferencesWereSet) EventType() Type           { return TypeNodeReferencesWereSet }
func (NodeAggregateWasDisabled) EventType() Type        { return TypeNodeAggregateWasDisabled }
func (NodeAggregateWasEnabled) EventType() Type         { return TypeNodeAggregateWasEnabled }
func (NodeAggregateWasRemoved) EventType() Type         { return TypeNodeAggregateWasRemoved }
func (NodeSpecializationVariantWasCreated) EventType() Type {
	return TypeNodeSpecializationVariantWasCreated
}
func (NodeGeneralizationVariantWasCreated) EventType() Type {
	return TypeNodeGeneralizationVariantWasCreated
}
func (NodePeerVariantWasCreated) EventType() Type   { return TypeNodePeerVariantWasCreated }
func (NodeAggregateNameWasChanged) EventType() Type { return TypeNodeAggregateNameWasChanged }
func (NodeAggregateTypeWasChanged) EventType() Type { return TypeNodeAggregateTypeWasChanged }
func (NodeAggregateWasMoved) EventType() Type       { return TypeNodeAggregateWasMoved }
func (SubtreeWasTagged) EventType() Type            { return TypeSubtreeWasTagged }
func (SubtreeWasUntagged) EventType() Type          { return TypeSubtreeWasUntagged }

func (e RootNodeAggregateWithNodeWasCreated) StreamID() node.ContentStreamID {
	return e.ContentStreamID
}
func (e NodeAggregateWithNodeWasCreated) StreamID() node.ContentStreamID { return e.ContentStreamID }
func (e NodePropertiesWereSet) StreamID() node.ContentStreamID           { return e.ContentStreamID }
func (e NodeReferencesWereSet) StreamID() node.ContentStreamID           { return e.ContentStreamID }
func (e NodeAggregateWasDisabled) StreamID() node.ContentStreamID        { return e.ContentStreamID }
func (e NodeAggregateWasEnabled) StreamID() node.ContentStreamID         { return e.ContentStreamID }
func (e NodeAggregateWasRemoved) StreamID() node.ContentStreamID         { return e.ContentStreamID }
func (e NodeSpecializationVariantWasCreated) StreamID() node.ContentStreamID {
	return e.ContentStreamID
}
func (e NodeGeneralizationVariantWasCreated) StreamID() node.ContentStreamID {
	return e.ContentStreamID
}
func (e NodePeerVariantWasCreated) StreamID() node.ContentStreamID   { return e.ContentStreamID }
func (e NodeAggregateNameWasChanged) StreamID() node.ContentStreamID { return e.ContentStreamID }
func (e NodeAggregateTypeWasChanged) StreamID() node.ContentStreamID { return e.ContentStreamID }
func (e NodeAggregateWasMoved) StreamID() node.ContentStreamID       { return e.ContentStreamID }
func (e SubtreeWasTagged) StreamID() node.ContentStreamID            { return e.ContentStreamID }
func (e SubtreeWasUntagged) StreamID() node.ContentStreamID          { return e.ContentStreamID }

func (e RootNodeAggregateWithNodeWasCreated) AggregateID() node.NodeAggregateID {
	return e.NodeAggregateID
}
func (e NodeAggregateWithNodeWasCreated) AggregateID() node.NodeAggregateID { return e.NodeAggregateID }
func (e NodePropertiesWereSet) AggregateID() node.NodeAggregateID           { return e.NodeAggregateID }
func (e NodeReferencesWereSet) AggregateID() node.NodeAggregateID           { return e.SourceNodeAggregateID }
func (e NodeAggregateWasDisabled) AggregateID() node.NodeAggregateID        { return e.NodeAggregateID }
func (e NodeAggregateWasEnabled) AggregateID() node.NodeAggregateID         { return e.NodeAggregateID }
func (e NodeAggregateWasRemoved) AggregateID() node.NodeAggregateID         { return e.NodeAggregateID }
func (e NodeSpecializationVariantWasCreated) AggregateID() node.NodeAggregateID {
	return e.NodeAggregateID
}
func (e NodeGeneralizationVariantWasCreated) AggregateID() node.NodeAggregateID {
	return e.NodeAggregateID
}
func (e NodePeerVariantWasCreated) AggregateID() node.NodeAggregateID   { return e.NodeAggregateID }
func (e NodeAggregateNameWasChanged) AggregateID() node.NodeAggregateID { return e.NodeAggregateID }
func (e NodeAggregateTypeWasChanged) AggregateID() node.NodeAggregateID { return e.NodeAggregateID }
func (e NodeAggregateWasMoved) AggregateID() node.NodeAggregateID       { return e.NodeAggregateID }
func (e SubtreeWasTagged) AggregateID() node.NodeAggregateID            { return e.NodeAggregateID }
func (e SubtreeWasUntagged) AggregateID() node.NodeAggregateID          { return e.NodeAggregateID }

// CopyForContentStream re-targets the event; node events are rebasable.
func (e RootNodeAggregateWithNodeWasCreated) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateWithNodeWasCreated) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodePropertiesWereSet) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeReferencesWereSet) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateWasDisabled) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateWasEnabled) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateWasRemoved) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeSpecializationVariantWasCreated) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeGeneralizationVariantWasCreated) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodePeerVariantWasCreated) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateNameWasChanged) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateTypeWasChanged) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e NodeAggregateWasMoved) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e SubtreeWasTagged) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}

func (e SubtreeWasUntagged) CopyForContentStream(id node.ContentStreamID) Event {
	e.ContentStreamID = id
	return e
}
