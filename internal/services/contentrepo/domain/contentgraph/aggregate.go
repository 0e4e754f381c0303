// Package contentgraph projects node events into per content stream graphs of
// node aggregates and answers the reads command handlers validate against.
package contentgraph

import (
	"sort"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Node is the materialized node of an aggregate in one origin.
type Node struct {
	NodeAggregateID           node.NodeAggregateID
	OriginDimensionSpacePoint dimension.OriginDimensionSpacePoint
	NodeTypeName              node.NodeTypeName
	NodeName                  node.NodeName
	Classification            node.Classification
	Properties                node.SerializedPropertyValues
	References                map[node.ReferenceName]node.NodeReferencesToWrite
}

// NodeAggregate is a point-in-time snapshot of all nodes sharing one id in
// one content stream. Snapshots never change after they are built.
type NodeAggregate struct {
	ContentStreamID node.ContentStreamID
	NodeAggregateID node.NodeAggregateID
	NodeTypeName    node.NodeTypeName
	NodeName        node.NodeName
	Classification  node.Classification

	nodes               map[string]Node
	occupied            dimension.OriginDimensionSpacePointSet
	covered             dimension.DimensionSpacePointSet
	occupationByCovered map[string]dimension.OriginDimensionSpacePoint
	coverageByOccupant  map[string]dimension.DimensionSpacePointSet
	parents             map[string]node.NodeAggregateID
	tags                map[string]node.SubtreeTags
}

// IsRoot reports whether the aggregate is classified root.
func (a *NodeAggregate) IsRoot() bool { return a.Classification.IsRoot() }

// IsTethered reports whether the aggregate is classified tethered.
func (a *NodeAggregate) IsTethered() bool { return a.Classification.IsTethered() }

// OccupiedDimensionSpacePoints returns the origins with authored nodes.
func (a *NodeAggregate) OccupiedDimensionSpacePoints() dimension.OriginDimensionSpacePointSet {
	return a.occupied
}

// CoveredDimensionSpacePoints returns every point the aggregate is visible in.
func (a *NodeAggregate) CoveredDimensionSpacePoints() dimension.DimensionSpacePointSet {
	return a.covered
}

// OccupiesDimensionSpacePoint reports whether origin has a node.
func (a *NodeAggregate) OccupiesDimensionSpacePoint(origin dimension.OriginDimensionSpacePoint) bool {
	return a.occupied.Contains(origin)
}

// CoversDimensionSpacePoint reports whether the aggregate is visible in point.
func (a *NodeAggregate) CoversDimensionSpacePoint(point dimension.DimensionSpacePoint) bool {
	return a.covered.Contains(point)
}

// OccupationByCovered returns the origin whose node is visible in point.
func (a *NodeAggregate) OccupationByCovered(point dimension.DimensionSpacePoint) (dimension.OriginDimensionSpacePoint, bool) {
	origin, ok := a.occupationByCovered[point.Hash()]
	return origin, ok
}

// CoverageByOccupant returns the points the node of origin is visible in.
func (a *NodeAggregate) CoverageByOccupant(origin dimension.OriginDimensionSpacePoint) dimension.DimensionSpacePointSet {
	return a.coverageByOccupant[origin.Hash()]
}

// NodeByOccupiedDimensionSpacePoint returns the node authored in origin.
func (a *NodeAggregate) NodeByOccupiedDimensionSpacePoint(origin dimension.OriginDimensionSpacePoint) (Node, bool) {
	n, ok := a.nodes[origin.Hash()]
	return n, ok
}

// NodeByCoveredDimensionSpacePoint returns the node visible in point.
func (a *NodeAggregate) NodeByCoveredDimensionSpacePoint(point dimension.DimensionSpacePoint) (Node, bool) {
	origin, ok := a.OccupationByCovered(point)
	if !ok {
		return Node{}, false
	}
	return a.NodeByOccupiedDimensionSpacePoint(origin)
}

// Nodes returns the nodes ordered by origin.
func (a *NodeAggregate) Nodes() []Node {
	out := make([]Node, 0, len(a.nodes))
	for _, origin := range a.occupied.Points() {
		out = append(out, a.nodes[origin.Hash()])
	}
	return out
}

// ParentNodeAggregateID returns the parent in point. Root aggregates have none.
func (a *NodeAggregate) ParentNodeAggregateID(point dimension.DimensionSpacePoint) (node.NodeAggregateID, bool) {
	parent, ok := a.parents[point.Hash()]
	if !ok || parent == "" {
		return "", false
	}
	return parent, true
}

// SubtreeTags returns the explicit and inherited tags in point.
func (a *NodeAggregate) SubtreeTags(point dimension.DimensionSpacePoint) node.SubtreeTags {
	return a.tags[point.Hash()]
}

// DisablesDimensionSpacePoint reports whether the aggregate itself is
// explicitly disabled in point.
func (a *NodeAggregate) DisablesDimensionSpacePoint(point dimension.DimensionSpacePoint) bool {
	return a.IsExplicitlyTagged(point, node.SubtreeTagDisabled)
}

// IsExplicitlyTagged reports whether tag was set on this aggregate in point.
func (a *NodeAggregate) IsExplicitlyTagged(point dimension.DimensionSpacePoint, tag node.SubtreeTag) bool {
	for _, explicit := range a.tags[point.Hash()].Explicit {
		if explicit == tag {
			return true
		}
	}
	return false
}

// DimensionSpacePointsTaggedWith returns the covered points where tag is set
// explicitly.
func (a *NodeAggregate) DimensionSpacePointsTaggedWith(tag node.SubtreeTag) dimension.DimensionSpacePointSet {
	var points []dimension.DimensionSpacePoint
	for _, point := range a.covered.Points() {
		if a.IsExplicitlyTagged(point, tag) {
			points = append(points, point)
		}
	}
	return dimension.NewDimensionSpacePointSet(points...)
}

func sortedTags(set map[node.SubtreeTag]bool) []node.SubtreeTag {
	if len(set) == 0 {
		return nil
	}
	out := make([]node.SubtreeTag, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
