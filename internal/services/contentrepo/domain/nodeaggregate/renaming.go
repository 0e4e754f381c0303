package nodeaggregate

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

func (h *Handler) handleChangeName(c command.ChangeNodeAggregateName) ([]event.Event, int64, error) {
	version, err := h.openStream(c.ContentStreamID)
	if err != nil {
		return nil, 0, err
	}
	agg, err := h.checker.RequireProjectedNodeAggregate(c.ContentStreamID, c.NodeAggregateID)
	if err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToNotBeRoot(agg); err != nil {
		return nil, 0, err
	}
	if err := constraint.RequireNodeAggregateToBeUntethered(agg); err != nil {
		return nil, 0, err
	}
	if c.NewNodeName != agg.NodeName {
		nodeType, err := h.checker.RequireNodeType(agg.NodeTypeName)
		if err != nil {
			return nil, 0, err
		}
		parents, err := h.graph.FindParentNodeAggregates(c.ContentStreamID, agg.NodeAggregateID)
		if err != nil {
			return nil, 0, err
		}
		for _, parent := range parents {
			parentType, err := h.checker.RequireNodeType(parent.NodeTypeName)
			if err != nil {
				return nil, 0, err
			}
			if err := constraint.RequireNodeTypeConstraintsImposedByParentToBeMet(parentType, c.NewNodeName, nodeType); err != nil {
				return nil, 0, err
			}
			if err := h.checker.RequireNodeNameToBeUncovered(c.ContentStreamID, c.NewNodeName, parent.NodeAggregateID, pointsBelow(agg, parent.NodeAggregateID)); err != nil {
				return nil, 0, err
			}
		}
	}
	return []event.Event{event.NodeAggregateNameWasChanged{
		ContentStreamID: c.ContentStreamID,
		NodeAggregateID: c.NodeAggregateID,
		NewNodeName:     c.NewNodeName,
	}}, version, nil
}

// pointsBelow returns the covered points where agg hangs below parentID.
func pointsBelow(agg *contentgraph.NodeAggregate, parentID node.NodeAggregateID) dimension.DimensionSpacePointSet {
	var points []dimension.DimensionSpacePoint
	for _, point := range agg.CoveredDimensionSpacePoints().Points() {
		if parent, ok := agg.ParentNodeAggregateID(point); ok && parent == parentID {
			points = append(points, point)
		}
	}
	return dimension.NewDimensionSpacePointSet(points...)
}
