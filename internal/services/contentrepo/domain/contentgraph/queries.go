package contentgraph

import (
	"sort"

	"github.com/louisbranch/contentrepository/internal/platform/encoding"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// ContentGraph is the read contract command handlers validate against. A
// missing aggregate is reported as a nil snapshot without error; errors are
// reserved for integrity defects.
type ContentGraph interface {
	HasContentStream(cs node.ContentStreamID) bool
	FindNodeAggregateByID(cs node.ContentStreamID, id node.NodeAggregateID) (*NodeAggregate, error)
	FindRootNodeAggregateByType(cs node.ContentStreamID, typeName node.NodeTypeName) (*NodeAggregate, error)
	FindParentNodeAggregates(cs node.ContentStreamID, childID node.NodeAggregateID) ([]*NodeAggregate, error)
	FindParentNodeAggregateByChildOriginDimensionSpacePoint(cs node.ContentStreamID, childID node.NodeAggregateID, childOrigin dimension.OriginDimensionSpacePoint) (*NodeAggregate, error)
	FindChildNodeAggregates(cs node.ContentStreamID, parentID node.NodeAggregateID) ([]*NodeAggregate, error)
	FindChildNodeAggregatesByName(cs node.ContentStreamID, parentID node.NodeAggregateID, name node.NodeName) ([]*NodeAggregate, error)
	FindTetheredChildNodeAggregates(cs node.ContentStreamID, parentID node.NodeAggregateID) ([]*NodeAggregate, error)
	GetDimensionSpacePointsOccupiedByChildNodeName(cs node.ContentStreamID, name node.NodeName, parentID node.NodeAggregateID, parentOrigin dimension.OriginDimensionSpacePoint, pointsToCheck dimension.DimensionSpacePointSet) (dimension.DimensionSpacePointSet, error)
	FindNodeAggregatesTaggedBy(cs node.ContentStreamID, tag node.SubtreeTag) ([]*NodeAggregate, error)
	CountNodes(cs node.ContentStreamID) int
}

// HasContentStream reports whether cs is projected.
func (p *Projection) HasContentStream(cs node.ContentStreamID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.graphs[cs]
	return ok
}

// FindNodeAggregateByID returns the aggregate or nil when it does not exist.
func (p *Projection) FindNodeAggregateByID(cs node.ContentStreamID, id node.NodeAggregateID) (*NodeAggregate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return nil, nil
	}
	return p.cached(cs, g, id)
}

// FindRootNodeAggregateByType returns the root aggregate of typeName or nil.
func (p *Projection) FindRootNodeAggregateByType(cs node.ContentStreamID, typeName node.NodeTypeName) (*NodeAggregate, error) {
	aggregates, err := p.filter(cs, func(_ *graph, agg *aggregateState) bool {
		n := agg.first()
		return n != nil && n.classification.IsRoot() && n.typeName == typeName
	})
	if err != nil || len(aggregates) == 0 {
		return nil, err
	}
	return aggregates[0], nil
}

// FindParentNodeAggregates returns every aggregate the child hangs under in
// any covered point.
func (p *Projection) FindParentNodeAggregates(cs node.ContentStreamID, childID node.NodeAggregateID) ([]*NodeAggregate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return nil, nil
	}
	child, ok := g.aggregates[childID]
	if !ok {
		return nil, nil
	}
	seen := map[node.NodeAggregateID]bool{}
	var ids []node.NodeAggregateID
	for _, e := range child.sortedEdges() {
		if e.parent == "" || seen[e.parent] {
			continue
		}
		seen[e.parent] = true
		ids = append(ids, e.parent)
	}
	return p.snapshots(cs, g, ids)
}

// FindParentNodeAggregateByChildOriginDimensionSpacePoint returns the parent
// of the child's node authored in childOrigin.
func (p *Projection) FindParentNodeAggregateByChildOriginDimensionSpacePoint(cs node.ContentStreamID, childID node.NodeAggregateID, childOrigin dimension.OriginDimensionSpacePoint) (*NodeAggregate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return nil, nil
	}
	child, ok := g.aggregates[childID]
	if !ok {
		return nil, nil
	}
	originHash := childOrigin.Hash()
	parent := ""
	if e, ok := child.coverage[originHash]; ok {
		parent = string(e.parent)
	} else {
		for _, e := range child.sortedEdges() {
			if e.origin == originHash {
				parent = string(e.parent)
				break
			}
		}
	}
	if parent == "" {
		return nil, nil
	}
	return p.cached(cs, g, node.NodeAggregateID(parent))
}

// FindChildNodeAggregates returns the children of parentID in creation order.
func (p *Projection) FindChildNodeAggregates(cs node.ContentStreamID, parentID node.NodeAggregateID) ([]*NodeAggregate, error) {
	return p.filter(cs, func(_ *graph, agg *aggregateState) bool {
		return agg.hasParent(parentID)
	})
}

// FindChildNodeAggregatesByName returns the children of parentID named name.
func (p *Projection) FindChildNodeAggregatesByName(cs node.ContentStreamID, parentID node.NodeAggregateID, name node.NodeName) ([]*NodeAggregate, error) {
	return p.filter(cs, func(_ *graph, agg *aggregateState) bool {
		return agg.hasParent(parentID) && agg.name() == name
	})
}

// FindTetheredChildNodeAggregates returns the tethered children of parentID.
func (p *Projection) FindTetheredChildNodeAggregates(cs node.ContentStreamID, parentID node.NodeAggregateID) ([]*NodeAggregate, error) {
	return p.filter(cs, func(_ *graph, agg *aggregateState) bool {
		n := agg.first()
		return n != nil && agg.hasParent(parentID) && n.classification.IsTethered()
	})
}

// GetDimensionSpacePointsOccupiedByChildNodeName returns the points of
// pointsToCheck in which the parent's node from parentOrigin already has a
// child named name.
func (p *Projection) GetDimensionSpacePointsOccupiedByChildNodeName(cs node.ContentStreamID, name node.NodeName, parentID node.NodeAggregateID, parentOrigin dimension.OriginDimensionSpacePoint, pointsToCheck dimension.DimensionSpacePointSet) (dimension.DimensionSpacePointSet, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return dimension.NewDimensionSpacePointSet(), nil
	}
	parent, ok := g.aggregates[parentID]
	if !ok {
		return dimension.NewDimensionSpacePointSet(), nil
	}
	parentOriginHash := parentOrigin.Hash()
	var occupied []dimension.DimensionSpacePoint
	for _, point := range pointsToCheck.Points() {
		hash := point.Hash()
		parentEdge, ok := parent.coverage[hash]
		if !ok || parentEdge.origin != parentOriginHash {
			continue
		}
		for _, child := range g.aggregates {
			if child.name() != name {
				continue
			}
			if e, ok := child.coverage[hash]; ok && e.parent == parentID {
				occupied = append(occupied, point)
				break
			}
		}
	}
	return dimension.NewDimensionSpacePointSet(occupied...), nil
}

// FindNodeAggregatesTaggedBy returns the aggregates explicitly tagged with
// tag in at least one covered point.
func (p *Projection) FindNodeAggregatesTaggedBy(cs node.ContentStreamID, tag node.SubtreeTag) ([]*NodeAggregate, error) {
	return p.filter(cs, func(_ *graph, agg *aggregateState) bool {
		for _, tags := range agg.tags {
			if tags[tag] {
				return true
			}
		}
		return false
	})
}

// CountNodes returns the number of materialized nodes in cs.
func (p *Projection) CountNodes(cs node.ContentStreamID) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return 0
	}
	count := 0
	for _, agg := range g.aggregates {
		count += len(agg.nodes)
	}
	return count
}

// AggregateSummary is the structural view of one aggregate used to compare
// content streams.
type AggregateSummary struct {
	NodeAggregateID node.NodeAggregateID `json:"nodeAggregateId"`
	NodeTypeName    node.NodeTypeName    `json:"nodeTypeName"`
	NodeName        node.NodeName        `json:"nodeName,omitempty"`
	Classification  node.Classification  `json:"classification"`
	Nodes           []NodeSummary        `json:"nodes"`
	Coverage        []EdgeSummary        `json:"coverage"`
}

// NodeSummary is the structural view of one node.
type NodeSummary struct {
	Origin     string                                            `json:"origin"`
	Properties node.SerializedPropertyValues                     `json:"properties,omitempty"`
	References map[node.ReferenceName]node.NodeReferencesToWrite `json:"references,omitempty"`
}

// EdgeSummary places an aggregate in one covered point.
type EdgeSummary struct {
	Point  string               `json:"point"`
	Origin string               `json:"origin"`
	Parent node.NodeAggregateID `json:"parent,omitempty"`
	Tags   []node.SubtreeTag    `json:"tags,omitempty"`
}

// Snapshot returns the structure of cs ordered by aggregate id. Two streams
// with equal snapshots project the same content.
func (p *Projection) Snapshot(cs node.ContentStreamID) []AggregateSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return nil
	}
	ids := make([]node.NodeAggregateID, 0, len(g.aggregates))
	for id := range g.aggregates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]AggregateSummary, 0, len(ids))
	for _, id := range ids {
		agg := g.aggregates[id]
		summary := AggregateSummary{NodeAggregateID: id}
		for _, n := range agg.sortedNodes() {
			summary.NodeTypeName, summary.NodeName, summary.Classification = n.typeName, n.name, n.classification
			summary.Nodes = append(summary.Nodes, NodeSummary{
				Origin:     n.origin.String(),
				Properties: n.properties.Clone(),
				References: cloneReferences(n.references),
			})
		}
		for _, e := range agg.sortedEdges() {
			origin := e.origin
			if n, ok := agg.nodes[e.origin]; ok {
				origin = n.origin.String()
			}
			summary.Coverage = append(summary.Coverage, EdgeSummary{
				Point:  e.point.String(),
				Origin: origin,
				Parent: e.parent,
				Tags:   sortedTags(agg.tags[e.point.Hash()]),
			})
		}
		out = append(out, summary)
	}
	return out
}

// Fingerprint hashes Snapshot.
func (p *Projection) Fingerprint(cs node.ContentStreamID) (string, error) {
	return encoding.ContentHash(p.Snapshot(cs))
}

func (p *Projection) filter(cs node.ContentStreamID, keep func(*graph, *aggregateState) bool) ([]*NodeAggregate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.graphs[cs]
	if !ok {
		return nil, nil
	}
	var matches []*aggregateState
	for _, agg := range g.aggregates {
		if keep(g, agg) {
			matches = append(matches, agg)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].created < matches[j].created })
	ids := make([]node.NodeAggregateID, 0, len(matches))
	for _, agg := range matches {
		ids = append(ids, agg.id)
	}
	return p.snapshots(cs, g, ids)
}

func (p *Projection) snapshots(cs node.ContentStreamID, g *graph, ids []node.NodeAggregateID) ([]*NodeAggregate, error) {
	out := make([]*NodeAggregate, 0, len(ids))
	for _, id := range ids {
		agg, err := p.cached(cs, g, id)
		if err != nil {
			return nil, err
		}
		if agg != nil {
			out = append(out, agg)
		}
	}
	return out, nil
}

// cached returns the snapshot of id, building it on a miss. Callers hold
// p.mu for reading.
func (p *Projection) cached(cs node.ContentStreamID, g *graph, id node.NodeAggregateID) (*NodeAggregate, error) {
	key := cacheKey{contentStreamID: cs, nodeAggregateID: id}
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if agg, ok := p.cache[key]; ok {
		return agg, nil
	}
	state, ok := g.aggregates[id]
	if !ok {
		return nil, nil
	}
	agg, err := g.snapshot(cs, state)
	if err != nil {
		return nil, err
	}
	p.cache[key] = agg
	return agg, nil
}

func (a *aggregateState) hasParent(parentID node.NodeAggregateID) bool {
	for _, e := range a.coverage {
		if e.parent == parentID {
			return true
		}
	}
	return false
}

func (a *aggregateState) name() node.NodeName {
	if n := a.first(); n != nil {
		return n.name
	}
	return ""
}

func (a *aggregateState) first() *nodeState {
	if len(a.nodes) == 0 {
		return nil
	}
	return a.sortedNodes()[0]
}
