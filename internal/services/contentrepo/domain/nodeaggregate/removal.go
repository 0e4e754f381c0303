package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

func (h *Handler) handleRemove(c command.RemoveNodeAggregate) ([]event.Event, int64, error) {
	agg, version, err := h.selectVariants(selection{c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy})
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotBeRoot(agg); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToBeUntethered(agg); err != nil {
		return nil, 0, err
	}
	points := h.selectPoints(agg, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy)
	return []event.Event{removalEvent(c.ContentStreamID, agg, points)}, version, nil
}

// removalEvent removes agg from points. An occupied origin is affected when
// its own point is removed.
func removalEvent(cs node.ContentStreamID, agg *contentgraph.NodeAggregate, points dimension.DimensionSpacePointSet) event.NodeAggregateWasRemoved {
	var occupied []dimension.OriginDimensionSpacePoint
	for _, origin := range agg.OccupiedDimensionSpacePoints().Points() {
		if points.Contains(origin.ToDimensionSpacePoint()) {
			occupied = append(occupied, origin)
		}
	}
	return event.NodeAggregateWasRemoved{
		ContentStreamID:                      cs,
		NodeAggregateID:                      agg.NodeAggregateID,
		AffectedOccupiedDimensionSpacePoints: dimension.NewOriginDimensionSpacePointSet(occupied...),
		AffectedCoveredDimensionSpacePoints:  points,
	}
}
