package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// selection is the part shared by commands that act on the variants of an
// aggregate selected from one covered point.
type selection struct {
	cs       node.ContentStreamID
	id       node.NodeAggregateID
	point    dimension.DimensionSpacePoint
	strategy node.NodeVariantSelectionStrategy
}

// selectVariants runs the checks every selection command shares and returns
// the aggregate together with the stream version.
func (h *Handler) selectVariants(s selection) (*contentgraph.NodeAggregate, int64, error) {
	version, err := h.openStream(s.cs)
	if err != nil {
		return nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(s.cs, s.id)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireDimensionSpacePointToExist(s.point); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToCoverDimensionSpacePoint(agg, s.point); err != nil {
		return nil, 0, err
	}
	return agg, version, nil
}

func (h *Handler) handleDisable(c command.DisableNodeAggregate) ([]event.Event, int64, error) {
	agg, version, err := h.selectVariants(selection{c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy})
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotDisableDimensionSpacePoint(agg, c.CoveredDimensionSpacePoint); err != nil {
		return nil, 0, err
	}
	points := h.selectPoints(agg, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy)
	return []event.Event{event.NodeAggregateWasDisabled{
		ContentStreamID:              c.ContentStreamID,
		NodeAggregateID:              c.NodeAggregateID,
		AffectedDimensionSpacePoints: points,
	}}, version, nil
}

func (h *Handler) handleEnable(c command.EnableNodeAggregate) ([]event.Event, int64, error) {
	agg, version, err := h.selectVariants(selection{c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy})
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToDisableDimensionSpacePoint(agg, c.CoveredDimensionSpacePoint); err != nil {
		return nil, 0, err
	}
	points := h.selectPoints(agg, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy).
		Intersect(agg.DimensionSpacePointsTaggedWith(node.SubtreeTagDisabled))
	return []event.Event{event.NodeAggregateWasEnabled{
		ContentStreamID:              c.ContentStreamID,
		NodeAggregateID:              c.NodeAggregateID,
		AffectedDimensionSpacePoints: points,
	}}, version, nil
}

func (h *Handler) handleTag(c command.TagSubtree) ([]event.Event, int64, error) {
	agg, version, err := h.selectVariants(selection{c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy})
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireSubtreeToNotBeTagged(agg, c.CoveredDimensionSpacePoint, c.Tag); err != nil {
		return nil, 0, err
	}
	return []event.Event{event.SubtreeWasTagged{
		ContentStreamID:              c.ContentStreamID,
		NodeAggregateID:              c.NodeAggregateID,
		AffectedDimensionSpacePoints: h.selectPoints(agg, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy),
		Tag:                          c.Tag,
	}}, version, nil
}

func (h *Handler) handleUntag(c command.UntagSubtree) ([]event.Event, int64, error) {
	agg, version, err := h.selectVariants(selection{c.ContentStreamID, c.NodeAggregateID, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy})
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireSubtreeToBeTagged(agg, c.CoveredDimensionSpacePoint, c.Tag); err != nil {
		return nil, 0, err
	}
	points := h.selectPoints(agg, c.CoveredDimensionSpacePoint, c.NodeVariantSelectionStrategy).
		Intersect(agg.DimensionSpacePointsTaggedWith(c.Tag))
	return []event.Event{event.SubtreeWasUntagged{
		ContentStreamID:              c.ContentStreamID,
		NodeAggregateID:              c.NodeAggregateID,
		AffectedDimensionSpacePoints: points,
		Tag:                          c.Tag,
	}}, version, nil
}
