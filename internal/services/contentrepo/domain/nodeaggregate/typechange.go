package nodeaggregate

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

// handleChangeType retypes an aggregate. Children the new type no longer
// allows fail the command under the happy path strategy and are removed
// under the delete strategy. Tethered children the new type no longer
// declares are removed either way, and newly declared ones are created in
// every origin of the aggregate.
func (h *Handler) handleChangeType(c command.ChangeNodeAggregateType) (command.NodeCommand, []event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NodeAggregateID)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotBeRoot(agg); err != nil {
		return nil, nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToBeUntethered(agg); err != nil {
		return nil, nil, 0, err
	}
	newType, err := h.checker.RequireNodeType(c.NewNodeTypeName)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToNotBeAbstract(newType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToNotBeOfTypeRoot(newType); err != nil {
		return nil, nil, 0, err
	}
	if err := h.requireTetheredTypes(newType); err != nil {
		return nil, nil, 0, err
	}
	parents, err := h.graph.FindParentNodeAggregates(c.ContentStreamID, agg.NodeAggregateID)
	if err != nil {
		return nil, nil, 0, err
	}
	parentIDs := make([]node.NodeAggregateID, 0, len(parents))
	for _, parent := range parents {
		parentIDs = append(parentIDs, parent.NodeAggregateID)
	}
	if err := h.checker.RequireConstraintsImposedByAncestorsToBeMet(c.ContentStreamID, newType, agg.NodeName, parentIDs); err != nil {
		return nil, nil, 0, err
	}

	events := []event.Event{event.NodeAggregateTypeWasChanged{
		ContentStreamID: c.ContentStreamID,
		NodeAggregateID: c.NodeAggregateID,
		NewNodeTypeName: c.NewNodeTypeName,
	}}
	removals, existing, err := h.typeChangeRemovals(c, agg, newType)
	if err != nil {
		return nil, nil, 0, err
	}
	events = append(events, removals...)

	missing := func(name node.NodeName) bool { return !existing[name] }
	ids, err := h.completeTetheredIDs(c.ContentStreamID, newType, c.TetheredDescendantNodeAggregateIDs, missing)
	if err != nil {
		return nil, nil, 0, err
	}
	c.TetheredDescendantNodeAggregateIDs = ids
	plan, err := h.planTethered(agg.NodeAggregateID, newType, ids, missing)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(plan) > 0 {
		origins := agg.OccupiedDimensionSpacePoints().Points()
		first := origins[0]
		events = append(events, tetheredCreationEvents(c.ContentStreamID, plan, first, agg.CoverageByOccupant(first))...)
		for _, origin := range origins[1:] {
			relation := h.variation.Relation(first.ToDimensionSpacePoint(), origin.ToDimensionSpacePoint())
			events = append(events, tetheredVariantEvents(c.ContentStreamID, plan, relation, first, origin, agg.CoverageByOccupant(origin))...)
		}
	}
	return c, events, version, nil
}

// typeChangeRemovals checks the children and grandchildren of agg against
// newType and returns the removals the strategy calls for, plus the names
// of the children that survive.
func (h *Handler) typeChangeRemovals(c command.ChangeNodeAggregateType, agg *contentgraph.NodeAggregate, newType *nodetype.NodeType) ([]event.Event, map[node.NodeName]bool, error) {
	children, err := h.graph.FindChildNodeAggregates(c.ContentStreamID, agg.NodeAggregateID)
	if err != nil {
		return nil, nil, err
	}
	var events []event.Event
	existing := map[node.NodeName]bool{}
	for _, child := range children {
		if child.IsTethered() && !newType.HasTetheredNode(child.NodeName) {
			events = append(events, removalEvent(c.ContentStreamID, child, child.CoveredDimensionSpacePoints()))
			continue
		}
		childType, err := h.checker.RequireNodeType(child.NodeTypeName)
		if err != nil {
			return nil, nil, err
		}
		if !constraint.AreNodeTypeConstraintsImposedByParentValid(newType, child.NodeName, childType) {
			if c.Strategy != command.TypeChangeDelete {
				return nil, nil, typeChangeViolation(c.NewNodeTypeName, child)
			}
			events = append(events, removalEvent(c.ContentStreamID, child, child.CoveredDimensionSpacePoints()))
			continue
		}
		if !child.NodeName.IsEmpty() {
			existing[child.NodeName] = true
		}
		if !child.IsTethered() {
			continue
		}
		grandchildren, err := h.graph.FindChildNodeAggregates(c.ContentStreamID, child.NodeAggregateID)
		if err != nil {
			return nil, nil, err
		}
		for _, grandchild := range grandchildren {
			grandchildType, err := h.checker.RequireNodeType(grandchild.NodeTypeName)
			if err != nil {
				return nil, nil, err
			}
			if constraint.AreNodeTypeConstraintsImposedByGrandparentValid(newType, child.NodeName, grandchildType) {
				continue
			}
			if c.Strategy != command.TypeChangeDelete {
				return nil, nil, typeChangeViolation(c.NewNodeTypeName, grandchild)
			}
			events = append(events, removalEvent(c.ContentStreamID, grandchild, grandchild.CoveredDimensionSpacePoints()))
		}
	}
	return events, existing, nil
}

func typeChangeViolation(newType node.NodeTypeName, descendant *contentgraph.NodeAggregate) error {
	reason := fmt.Sprintf("node type %s does not allow descendant %s of type %s", newType, descendant.NodeAggregateID, descendant.NodeTypeName)
	return apperrors.WithMetadata(apperrors.CodeNodeConstraintViolation, reason, map[string]string{
		"Reason":          reason,
		"NodeAggregateID": string(descendant.NodeAggregateID),
		"NodeTypeName":    string(newType),
	})
}
