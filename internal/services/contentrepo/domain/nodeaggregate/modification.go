package nodeaggregate

import (
	"sort"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

func (h *Handler) handleSetProperties(c command.SetSerializedNodeProperties) ([]event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	origin := c.OriginDimensionSpacePoint
	if err := h.checker.RequireDimensionSpacePointToExist(origin.ToDimensionSpacePoint()); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToOccupyDimensionSpacePoint(agg, origin); err != nil {
		return nil, 0, err
	}
	nodeType, err := h.checker.RequireNodeType(agg.NodeTypeName)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireNodeTypeToDeclareProperties(nodeType, c.PropertyValues); err != nil {
		return nil, 0, err
	}

	// Values of every scope are folded into one event per affected origin,
	// the commanded origin first.
	order := []dimension.OriginDimensionSpacePoint{origin}
	byOrigin := map[string]node.SerializedPropertyValues{}
	for scope, values := range c.PropertyValues.SplitByScope(nodeType.PropertyScope) {
		for _, affected := range h.originsInScope(agg, origin, scope) {
			key := affected.ToDimensionSpacePoint().Hash()
			if _, ok := byOrigin[key]; !ok && !affected.Equal(origin) {
				order = append(order, affected)
			}
			byOrigin[key] = byOrigin[key].Merge(values)
		}
	}
	sortOrigins(order[1:], agg)

	var events []event.Event
	for _, affected := range order {
		values, ok := byOrigin[affected.ToDimensionSpacePoint().Hash()]
		if !ok {
			continue
		}
		events = append(events, event.NodePropertiesWereSet{
			ContentStreamID:              c.ContentStreamID,
			NodeAggregateID:              c.NodeAggregateID,
			OriginDimensionSpacePoint:    affected,
			AffectedDimensionSpacePoints: agg.CoverageByOccupant(affected),
			PropertyValues:               values,
		})
	}
	return events, version, nil
}

func (h *Handler) handleSetReferences(c command.SetSerializedNodeReferences) ([]event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, 0, err
	}
	source, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.SourceNodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	origin := c.SourceOriginDimensionSpacePoint
	if err := h.checker.RequireDimensionSpacePointToExist(origin.ToDimensionSpacePoint()); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToOccupyDimensionSpacePoint(source, origin); err != nil {
		return nil, 0, err
	}
	sourceType, err := h.checker.RequireNodeType(source.NodeTypeName)
	if err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireReferencesToBeValid(c.ContentStreamID, sourceType, c.ReferenceName, c.References); err != nil {
		return nil, 0, err
	}
	scope := sourceType.PropertyScope(node.PropertyName(c.ReferenceName))
	affected := h.originsInScope(source, origin, scope)
	sortOrigins(affected, source)
	return []event.Event{event.NodeReferencesWereSet{
		ContentStreamID:                          c.ContentStreamID,
		SourceNodeAggregateID:                    c.SourceNodeAggregateID,
		AffectedSourceOriginDimensionSpacePoints: dimension.NewOriginDimensionSpacePointSet(affected...),
		ReferenceName:                            c.ReferenceName,
		References:                               c.References,
	}}, version, nil
}

// originsInScope lists the occupied origins of agg a write authored in
// origin reaches under scope.
func (h *Handler) originsInScope(agg *contentgraph.NodeAggregate, origin dimension.OriginDimensionSpacePoint, scope node.PropertyScope) []dimension.OriginDimensionSpacePoint {
	switch scope {
	case node.PropertyScopeNodeAggregate:
		return agg.OccupiedDimensionSpacePoints().Points()
	case node.PropertyScopeSpecializations:
		reach := h.withSpecializations(origin.ToDimensionSpacePoint())
		var out []dimension.OriginDimensionSpacePoint
		for _, occupied := range agg.OccupiedDimensionSpacePoints().Points() {
			if reach.Contains(occupied.ToDimensionSpacePoint()) {
				out = append(out, occupied)
			}
		}
		return out
	default:
		return []dimension.OriginDimensionSpacePoint{origin}
	}
}

// sortOrigins orders origins the way agg lists its occupied points.
func sortOrigins(origins []dimension.OriginDimensionSpacePoint, agg *contentgraph.NodeAggregate) {
	rank := map[string]int{}
	for i, occupied := range agg.OccupiedDimensionSpacePoints().Points() {
		rank[occupied.ToDimensionSpacePoint().Hash()] = i
	}
	sort.SliceStable(origins, func(i, j int) bool {
		return rank[origins[i].ToDimensionSpacePoint().Hash()] < rank[origins[j].ToDimensionSpacePoint().Hash()]
	})
}
