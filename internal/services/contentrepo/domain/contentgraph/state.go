package contentgraph

import (
	"fmt"
	"sort"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// graph is the projected state of one content stream.
type graph struct {
	aggregates map[node.NodeAggregateID]*aggregateState
	created    uint64
}

type nodeState struct {
	origin         dimension.OriginDimensionSpacePoint
	typeName       node.NodeTypeName
	name           node.NodeName
	classification node.Classification
	properties     node.SerializedPropertyValues
	references     map[node.ReferenceName]node.NodeReferencesToWrite
}

// edge places the aggregate in one covered point: the origin whose node is
// visible there and the parent it hangs under.
type edge struct {
	point  dimension.DimensionSpacePoint
	origin string
	parent node.NodeAggregateID
}

type aggregateState struct {
	id       node.NodeAggregateID
	created  uint64
	nodes    map[string]*nodeState
	coverage map[string]*edge
	tags     map[string]map[node.SubtreeTag]bool
}

func newGraph() *graph {
	return &graph{aggregates: make(map[node.NodeAggregateID]*aggregateState)}
}

func (g *graph) clone() *graph {
	out := &graph{aggregates: make(map[node.NodeAggregateID]*aggregateState, len(g.aggregates)), created: g.created}
	for id, agg := range g.aggregates {
		out.aggregates[id] = agg.clone()
	}
	return out
}

func (g *graph) aggregate(id node.NodeAggregateID) *aggregateState {
	agg, ok := g.aggregates[id]
	if !ok {
		g.created++
		agg = &aggregateState{
			id:       id,
			created:  g.created,
			nodes:    make(map[string]*nodeState),
			coverage: make(map[string]*edge),
			tags:     make(map[string]map[node.SubtreeTag]bool),
		}
		g.aggregates[id] = agg
	}
	return agg
}

func (a *aggregateState) clone() *aggregateState {
	out := &aggregateState{
		id:       a.id,
		created:  a.created,
		nodes:    make(map[string]*nodeState, len(a.nodes)),
		coverage: make(map[string]*edge, len(a.coverage)),
		tags:     make(map[string]map[node.SubtreeTag]bool, len(a.tags)),
	}
	for hash, n := range a.nodes {
		copied := *n
		copied.properties = n.properties.Clone()
		copied.references = cloneReferences(n.references)
		out.nodes[hash] = &copied
	}
	for hash, e := range a.coverage {
		copied := *e
		out.coverage[hash] = &copied
	}
	for hash, tags := range a.tags {
		copied := make(map[node.SubtreeTag]bool, len(tags))
		for tag := range tags {
			copied[tag] = true
		}
		out.tags[hash] = copied
	}
	return out
}

func cloneReferences(in map[node.ReferenceName]node.NodeReferencesToWrite) map[node.ReferenceName]node.NodeReferencesToWrite {
	if in == nil {
		return nil
	}
	out := make(map[node.ReferenceName]node.NodeReferencesToWrite, len(in))
	for name, refs := range in {
		out[name] = append(node.NodeReferencesToWrite(nil), refs...)
	}
	return out
}

// setTag adds or removes an explicit tag in point.
func (a *aggregateState) setTag(point dimension.DimensionSpacePoint, tag node.SubtreeTag, on bool) {
	hash := point.Hash()
	if on {
		if a.tags[hash] == nil {
			a.tags[hash] = map[node.SubtreeTag]bool{}
		}
		a.tags[hash][tag] = true
		return
	}
	delete(a.tags[hash], tag)
	if len(a.tags[hash]) == 0 {
		delete(a.tags, hash)
	}
}

// uncover drops the aggregate from point and forgets nodes left without
// coverage.
func (a *aggregateState) uncover(point dimension.DimensionSpacePoint) {
	hash := point.Hash()
	delete(a.coverage, hash)
	delete(a.tags, hash)
}

func (a *aggregateState) dropUncoveredNodes() {
	used := make(map[string]bool, len(a.nodes))
	for _, e := range a.coverage {
		used[e.origin] = true
	}
	for hash := range a.nodes {
		if !used[hash] {
			delete(a.nodes, hash)
		}
	}
}

// parentIn returns the parent of the aggregate in point, falling back to the
// parent of the origin's own point and then to any known parent.
func (a *aggregateState) parentIn(point dimension.DimensionSpacePoint, origin dimension.OriginDimensionSpacePoint) node.NodeAggregateID {
	if e, ok := a.coverage[point.Hash()]; ok {
		return e.parent
	}
	if e, ok := a.coverage[origin.Hash()]; ok {
		return e.parent
	}
	if edges := a.sortedEdges(); len(edges) > 0 {
		return edges[0].parent
	}
	return ""
}

func (a *aggregateState) sortedEdges() []*edge {
	edges := make([]*edge, 0, len(a.coverage))
	for _, e := range a.coverage {
		edges = append(edges, e)
	}
	sortEdges(edges)
	return edges
}

// snapshot freezes the aggregate. Tags inherited from ancestors are resolved
// against g.
func (g *graph) snapshot(cs node.ContentStreamID, a *aggregateState) (*NodeAggregate, error) {
	out := &NodeAggregate{
		ContentStreamID:     cs,
		NodeAggregateID:     a.id,
		nodes:               make(map[string]Node, len(a.nodes)),
		occupationByCovered: make(map[string]dimension.OriginDimensionSpacePoint, len(a.coverage)),
		coverageByOccupant:  make(map[string]dimension.DimensionSpacePointSet, len(a.nodes)),
		parents:             make(map[string]node.NodeAggregateID, len(a.coverage)),
		tags:                make(map[string]node.SubtreeTags, len(a.coverage)),
	}

	origins := make([]dimension.OriginDimensionSpacePoint, 0, len(a.nodes))
	first := true
	for _, n := range a.sortedNodes() {
		if first {
			out.NodeTypeName, out.NodeName, out.Classification = n.typeName, n.name, n.classification
			first = false
		} else if n.typeName != out.NodeTypeName || n.name != out.NodeName || n.classification != out.Classification {
			return nil, apperrors.WithMetadata(apperrors.CodeNodeAggregatesTypeIsAmbiguous,
				fmt.Sprintf("node aggregate %s has nodes of differing type, name or classification", a.id),
				map[string]string{"NodeAggregateID": string(a.id)})
		}
		origins = append(origins, n.origin)
		out.nodes[n.origin.Hash()] = Node{
			NodeAggregateID:           a.id,
			OriginDimensionSpacePoint: n.origin,
			NodeTypeName:              n.typeName,
			NodeName:                  n.name,
			Classification:            n.classification,
			Properties:                n.properties.Clone(),
			References:                cloneReferences(n.references),
		}
	}
	out.occupied = dimension.NewOriginDimensionSpacePointSet(origins...)

	coverage := make(map[string][]dimension.DimensionSpacePoint, len(a.nodes))
	covered := make([]dimension.DimensionSpacePoint, 0, len(a.coverage))
	for _, e := range a.sortedEdges() {
		n, ok := a.nodes[e.origin]
		if !ok {
			return nil, apperrors.WithMetadata(apperrors.CodeNodeAggregatesTypeIsAmbiguous,
				fmt.Sprintf("node aggregate %s covers %s without a node", a.id, e.point),
				map[string]string{"NodeAggregateID": string(a.id)})
		}
		hash := e.point.Hash()
		covered = append(covered, e.point)
		out.occupationByCovered[hash] = n.origin
		out.parents[hash] = e.parent
		coverage[e.origin] = append(coverage[e.origin], e.point)

		inherited, err := g.inheritedTags(e.parent, e.point)
		if err != nil {
			return nil, err
		}
		out.tags[hash] = node.SubtreeTags{Explicit: sortedTags(a.tags[hash]), Inherited: sortedTags(inherited)}
	}
	out.covered = dimension.NewDimensionSpacePointSet(covered...)
	for hash, points := range coverage {
		out.coverageByOccupant[hash] = dimension.NewDimensionSpacePointSet(points...)
	}
	return out, nil
}

// inheritedTags collects the explicit tags of every ancestor in point,
// walking parents with a visited set.
func (g *graph) inheritedTags(parent node.NodeAggregateID, point dimension.DimensionSpacePoint) (map[node.SubtreeTag]bool, error) {
	hash := point.Hash()
	tags := map[node.SubtreeTag]bool{}
	visited := map[node.NodeAggregateID]bool{}
	for current := parent; current != ""; {
		if visited[current] {
			return nil, apperrors.WithMetadata(apperrors.CodeNodeAggregateIsDescendant,
				fmt.Sprintf("node aggregate %s is its own ancestor in %s", current, point),
				map[string]string{"NodeAggregateID": string(current), "AncestorNodeAggregateID": string(current)})
		}
		visited[current] = true
		agg, ok := g.aggregates[current]
		if !ok {
			break
		}
		for tag := range agg.tags[hash] {
			tags[tag] = true
		}
		e, ok := agg.coverage[hash]
		if !ok {
			break
		}
		current = e.parent
	}
	return tags, nil
}

func (a *aggregateState) sortedNodes() []*nodeState {
	nodes := make([]*nodeState, 0, len(a.nodes))
	for _, n := range a.nodes {
		nodes = append(nodes, n)
	}
	sortNodes(nodes)
	return nodes
}

func sortEdges(edges []*edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].point.String() < edges[j].point.String() })
}

func sortNodes(nodes []*nodeState) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].origin.String() < nodes[j].origin.String() })
}
