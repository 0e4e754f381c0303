package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
)

func (h *Handler) handleCreateVariant(c command.CreateNodeVariant) ([]event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	source, target := c.SourceOrigin, c.TargetOrigin
	if err := h.checker.RequireDimensionSpacePointToExist(source.ToDimensionSpacePoint()); err != nil {
		return nil, 0, err
	}
	if err := h.checker.RequireDimensionSpacePointToExist(target.ToDimensionSpacePoint()); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotBeRoot(agg); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToBeUntethered(agg); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToOccupyDimensionSpacePoint(agg, source); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotOccupyDimensionSpacePoint(agg, target); err != nil {
		return nil, 0, err
	}
	parent, err := h.checker.RequireProjectedParentNodeAggregate(c.ContentStreamID, c.NodeAggregateID, source)
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToCoverDimensionSpacePoint(parent, target.ToDimensionSpacePoint()); err != nil {
		return nil, 0, err
	}

	coverage := h.visibility(agg, target.ToDimensionSpacePoint(), parent.CoveredDimensionSpacePoints())
	if !agg.NodeName.IsEmpty() {
		if err := h.checker.RequireNodeNameToBeUncovered(c.ContentStreamID, agg.NodeName, parent.NodeAggregateID, coverage.Difference(agg.CoveredDimensionSpacePoints())); err != nil {
			return nil, 0, err
		}
	}
	relation := h.variation.Relation(source.ToDimensionSpacePoint(), target.ToDimensionSpacePoint())
	events := []event.Event{variantEvent(c.ContentStreamID, agg.NodeAggregateID, relation, source, target, coverage)}

	tethered, err := h.tetheredVariants(agg, relation, source, target, coverage)
	if err != nil {
		return nil, 0, err
	}
	return append(events, tethered...), version, nil
}

type variantItem struct {
	parent   *contentgraph.NodeAggregate
	coverage dimension.DimensionSpacePointSet
}

// tetheredVariants varies the tethered descendants of agg along with it.
// Descendants already occupying target keep their node.
func (h *Handler) tetheredVariants(agg *contentgraph.NodeAggregate, relation dimension.Relation, source, target dimension.OriginDimensionSpacePoint, coverage dimension.DimensionSpacePointSet) ([]event.Event, error) {
	var events []event.Event
	worklist := []variantItem{{parent: agg, coverage: coverage}}
	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]
		children, err := h.graph.FindTetheredChildNodeAggregates(agg.ContentStreamID, item.parent.NodeAggregateID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if !child.OccupiesDimensionSpacePoint(source) || child.OccupiesDimensionSpacePoint(target) {
				continue
			}
			childCoverage := h.visibility(child, target.ToDimensionSpacePoint(), item.coverage)
			events = append(events, variantEvent(agg.ContentStreamID, child.NodeAggregateID, relation, source, target, childCoverage))
			worklist = append(worklist, variantItem{parent: child, coverage: childCoverage})
		}
	}
	return events, nil
}
