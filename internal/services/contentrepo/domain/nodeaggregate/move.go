package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

func (h *Handler) handleMove(c command.MoveNodeAggregate) ([]event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, 0, err
	}
	if err := requireNewParent(c.NewParentNodeAggregateID); err != nil {
		return nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireDimensionSpacePointToExist(c.DimensionSpacePoint); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToCoverDimensionSpacePoint(agg, c.DimensionSpacePoint); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotBeRoot(agg); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToBeUntethered(agg); err != nil {
		return nil, 0, err
	}
	newParent, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NewParentNodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireNodeAggregateToNotBeDescendant(c.ContentStreamID, newParent.NodeAggregateID, agg.NodeAggregateID); err != nil {
		return nil, 0, err
	}
	affected := h.movedPoints(agg, c.DimensionSpacePoint, c.RelationDistributionStrategy)
	if err := constraint.RequireNodeAggregateToCoverDimensionSpacePoints(newParent, affected); err != nil {
		return nil, 0, err
	}
	nodeType, err := h.checker.RequireNodeType(agg.NodeTypeName)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireConstraintsImposedByAncestorsToBeMet(c.ContentStreamID, nodeType, agg.NodeName, []node.NodeAggregateID{newParent.NodeAggregateID}); err != nil {
		return nil, 0, err
	}
	if !agg.NodeName.IsEmpty() {
		moving := affected.Difference(pointsBelow(agg, newParent.NodeAggregateID))
		if err := h.checker.RequireNodeNameToBeUncovered(c.ContentStreamID, agg.NodeName, newParent.NodeAggregateID, moving); err != nil {
			return nil, 0, err
		}
	}
	return []event.Event{event.NodeAggregateWasMoved{
		ContentStreamID:              c.ContentStreamID,
		NodeAggregateID:              c.NodeAggregateID,
		NewParentNodeAggregateID:     newParent.NodeAggregateID,
		AffectedDimensionSpacePoints: affected,
	}}, version, nil
}

// movedPoints resolves the relation distribution strategy from point. The
// empty strategy gathers specializations.
func (h *Handler) movedPoints(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint, strategy node.RelationDistributionStrategy) dimension.DimensionSpacePointSet {
	switch strategy {
	case node.RelationDistributionScatter:
		return dimension.NewDimensionSpacePointSet(point)
	case node.RelationDistributionGatherAll:
		return agg.CoveredDimensionSpacePoints()
	default:
		return h.withSpecializations(point).Intersect(agg.CoveredDimensionSpacePoints())
	}
}
