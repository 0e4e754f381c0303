package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

func (h *Handler) handleCreateRoot(c command.CreateRootNodeAggregateWithNode) (command.NodeCommand, []event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, nil, 0, err
	}
	nodeType, err := h.checker.RequireNodeType(c.NodeTypeName)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToNotBeAbstract(nodeType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToBeOfTypeRoot(nodeType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireProjectedNodeAggregateToNotExist(c.ContentStreamID, c.NodeAggregateID); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireRootNodeTypeToBeUnoccupied(c.ContentStreamID, c.NodeTypeName); err != nil {
		return nil, nil, 0, err
	}
	if err := h.requireTetheredTypes(nodeType); err != nil {
		return nil, nil, 0, err
	}
	ids, err := h.completeTetheredIDs(c.ContentStreamID, nodeType, c.TetheredDescendantNodeAggregateIDs, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	c.TetheredDescendantNodeAggregateIDs = ids

	allowed := h.subspace.AllowedDimensionSubspace()
	events := []event.Event{event.RootNodeAggregateWithNodeWasCreated{
		ContentStreamID:             c.ContentStreamID,
		NodeAggregateID:             c.NodeAggregateID,
		NodeTypeName:                c.NodeTypeName,
		CoveredDimensionSpacePoints: allowed,
		NodeAggregateClassification: node.ClassificationRoot,
	}}
	plan, err := h.planTethered(c.NodeAggregateID, nodeType, ids, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(plan) == 0 {
		return c, events, version, nil
	}

	// Tethered children of a root are authored once per root generalization
	// and varied as peers into the others.
	var first dimension.OriginDimensionSpacePoint
	for i, point := range h.rootGeneralizations(allowed) {
		origin := point.AsOrigin()
		coverage := h.withSpecializations(point).Intersect(allowed)
		if i == 0 {
			first = origin
			events = append(events, tetheredCreationEvents(c.ContentStreamID, plan, origin, coverage)...)
			continue
		}
		events = append(events, tetheredVariantEvents(c.ContentStreamID, plan, dimension.RelationPeer, first, origin, coverage)...)
	}
	return c, events, version, nil
}

func (h *Handler) rootGeneralizations(allowed dimension.DimensionSpacePointSet) []dimension.DimensionSpacePoint {
	var points []dimension.DimensionSpacePoint
	for _, point := range allowed.Points() {
		if h.variation.GetGeneralizationSet(point).IsEmpty() {
			points = append(points, point)
		}
	}
	return points
}

func (h *Handler) handleCreate(c command.CreateNodeAggregateWithNode) (command.NodeCommand, []event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, nil, 0, err
	}
	origin := c.OriginDimensionSpacePoint
	if err := h.checker.RequireDimensionSpacePointToExist(origin.ToDimensionSpacePoint()); err != nil {
		return nil, nil, 0, err
	}
	nodeType, err := h.checker.RequireNodeType(c.NodeTypeName)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToNotBeAbstract(nodeType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToNotBeOfTypeRoot(nodeType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.requireTetheredTypes(nodeType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireProjectedNodeAggregateToNotExist(c.ContentStreamID, c.NodeAggregateID); err != nil {
		return nil, nil, 0, err
	}
	parent, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.ParentNodeAggregateID)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToCoverDimensionSpacePoint(parent, origin.ToDimensionSpacePoint()); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireConstraintsImposedByAncestorsToBeMet(c.ContentStreamID, nodeType, c.NodeName, []node.NodeAggregateID{parent.NodeAggregateID}); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToDeclareProperties(nodeType, c.InitialPropertyValues); err != nil {
		return nil, nil, 0, err
	}

	// Specializations the parent does not cover are left out instead of rejected.
	covered := h.withSpecializations(origin.ToDimensionSpacePoint()).Intersect(parent.CoveredDimensionSpacePoints())
	if !c.NodeName.IsEmpty() {
		parentOrigin, _ := parent.OccupationByCovered(origin.ToDimensionSpacePoint())
		if err := h.checker.RequireNodeNameToBeUnoccupied(c.ContentStreamID, c.NodeName, parent.NodeAggregateID, parentOrigin, covered); err != nil {
			return nil, nil, 0, err
		}
		if err := h.checker.RequireNodeNameToBeUncovered(c.ContentStreamID, c.NodeName, parent.NodeAggregateID, covered); err != nil {
			return nil, nil, 0, err
		}
	}
	ids, err := h.completeTetheredIDs(c.ContentStreamID, nodeType, c.TetheredDescendantNodeAggregateIDs, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	c.TetheredDescendantNodeAggregateIDs = ids
	plan, err := h.planTethered(c.NodeAggregateID, nodeType, ids, nil)
	if err != nil {
		return nil, nil, 0, err
	}

	events := []event.Event{event.NodeAggregateWithNodeWasCreated{
		ContentStreamID:             c.ContentStreamID,
		NodeAggregateID:             c.NodeAggregateID,
		NodeTypeName:                c.NodeTypeName,
		OriginDimensionSpacePoint:   origin,
		CoveredDimensionSpacePoints: covered,
		ParentNodeAggregateID:       parent.NodeAggregateID,
		NodeName:                    c.NodeName,
		InitialPropertyValues:       nodeType.DefaultValues().Merge(c.InitialPropertyValues),
		NodeAggregateClassification: node.ClassificationRegular,
	}}
	events = append(events, tetheredCreationEvents(c.ContentStreamID, plan, origin, covered)...)
	return c, events, version, nil
}

func (h *Handler) requireTetheredTypes(nodeType *nodetype.NodeType) error {
	if err := h.checker.RequireTetheredDescendantNodeTypesToExist(nodeType); err != nil {
		return err
	}
	return h.checker.RequireTetheredDescendantNodeTypesToNotBeOfTypeRoot(nodeType)
}
