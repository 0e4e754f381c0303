package contentgraph

import (
	"fmt"
	"sync"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// ProjectionName is the checkpoint name of the content graph.
const ProjectionName = "contentgraph"

type cacheKey struct {
	contentStreamID node.ContentStreamID
	nodeAggregateID node.NodeAggregateID
}

// Projection is the in-memory content graph. It implements ContentGraph and
// replay.Projection.
//
// Aggregate snapshots are cached until Invalidate is called; the engine does
// so after every handled command.
type Projection struct {
	mu      sync.RWMutex
	graphs  map[node.ContentStreamID]*graph
	lastSeq uint64

	cacheMu sync.Mutex
	cache   map[cacheKey]*NodeAggregate
}

var _ ContentGraph = (*Projection)(nil)

// NewProjection creates an empty content graph.
func NewProjection() *Projection {
	return &Projection{
		graphs: make(map[node.ContentStreamID]*graph),
		cache:  make(map[cacheKey]*NodeAggregate),
	}
}

// Name returns the checkpoint name.
func (p *Projection) Name() string { return ProjectionName }

// Reset drops all state.
func (p *Projection) Reset() {
	p.mu.Lock()
	p.graphs = make(map[node.ContentStreamID]*graph)
	p.lastSeq = 0
	p.mu.Unlock()
	p.Invalidate()
}

// Invalidate clears the aggregate snapshot cache.
func (p *Projection) Invalidate() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cache = make(map[cacheKey]*NodeAggregate)
}

// Apply folds one committed record. Records at or below the last applied
// sequence are ignored.
func (p *Projection) Apply(record eventstore.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record.Sequence != 0 && record.Sequence <= p.lastSeq {
		return nil
	}
	if err := p.apply(record.Event); err != nil {
		return err
	}
	if record.Sequence > p.lastSeq {
		p.lastSeq = record.Sequence
	}
	return nil
}

func (p *Projection) apply(evt event.Event) error {
	switch e := evt.(type) {
	case event.ContentStreamWasCreated:
		p.graphs[e.ContentStreamID] = newGraph()
	case event.ContentStreamWasForked:
		source, ok := p.graphs[e.SourceContentStreamID]
		if !ok {
			p.graphs[e.NewContentStreamID] = newGraph()
			return nil
		}
		p.graphs[e.NewContentStreamID] = source.clone()
	case event.ContentStreamWasRemoved:
		delete(p.graphs, e.ContentStreamID)
	case event.ContentStreamWasClosed:
		// Closing only affects writes.
	case event.RootNodeAggregateWithNodeWasCreated:
		g, err := p.graph(e.ContentStreamID)
		if err != nil {
			return err
		}
		origin := dimension.EmptyDimensionSpacePoint().AsOrigin()
		p.createNode(g, e.NodeAggregateID, origin, e.CoveredDimensionSpacePoints, "", e.NodeTypeName, "", e.NodeAggregateClassification, nil)
	case event.NodeAggregateWithNodeWasCreated:
		g, err := p.graph(e.ContentStreamID)
		if err != nil {
			return err
		}
		p.createNode(g, e.NodeAggregateID, e.OriginDimensionSpacePoint, e.CoveredDimensionSpacePoints,
			e.ParentNodeAggregateID, e.NodeTypeName, e.NodeName, e.NodeAggregateClassification, e.InitialPropertyValues)
	case event.NodePropertiesWereSet:
		return p.withNode(e.ContentStreamID, e.NodeAggregateID, e.OriginDimensionSpacePoint, func(n *nodeState) {
			n.properties = e.PropertyValues.ApplyTo(n.properties)
		})
	case event.NodeReferencesWereSet:
		for _, origin := range e.AffectedSourceOriginDimensionSpacePoints.Points() {
			if err := p.withNode(e.ContentStreamID, e.SourceNodeAggregateID, origin, func(n *nodeState) {
				if n.references == nil {
					n.references = map[node.ReferenceName]node.NodeReferencesToWrite{}
				}
				if len(e.References) == 0 {
					delete(n.references, e.ReferenceName)
					return
				}
				n.references[e.ReferenceName] = append(node.NodeReferencesToWrite(nil), e.References...)
			}); err != nil {
				return err
			}
		}
	case event.NodeAggregateWasDisabled:
		return p.tag(e.ContentStreamID, e.NodeAggregateID, e.AffectedDimensionSpacePoints, node.SubtreeTagDisabled, true)
	case event.NodeAggregateWasEnabled:
		return p.tag(e.ContentStreamID, e.NodeAggregateID, e.AffectedDimensionSpacePoints, node.SubtreeTagDisabled, false)
	case event.SubtreeWasTagged:
		return p.tag(e.ContentStreamID, e.NodeAggregateID, e.AffectedDimensionSpacePoints, e.Tag, true)
	case event.SubtreeWasUntagged:
		return p.tag(e.ContentStreamID, e.NodeAggregateID, e.AffectedDimensionSpacePoints, e.Tag, false)
	case event.NodeAggregateWasRemoved:
		return p.remove(e)
	case event.NodeSpecializationVariantWasCreated:
		return p.createVariant(e.ContentStreamID, e.NodeAggregateID, e.SourceOrigin, e.SpecializationOrigin, e.SpecializationCoverage)
	case event.NodeGeneralizationVariantWasCreated:
		return p.createVariant(e.ContentStreamID, e.NodeAggregateID, e.SourceOrigin, e.GeneralizationOrigin, e.GeneralizationCoverage)
	case event.NodePeerVariantWasCreated:
		return p.createVariant(e.ContentStreamID, e.NodeAggregateID, e.SourceOrigin, e.PeerOrigin, e.PeerCoverage)
	case event.NodeAggregateNameWasChanged:
		return p.withAggregate(e.ContentStreamID, e.NodeAggregateID, func(_ *graph, agg *aggregateState) error {
			for _, n := range agg.nodes {
				n.name = e.NewNodeName
			}
			return nil
		})
	case event.NodeAggregateTypeWasChanged:
		return p.withAggregate(e.ContentStreamID, e.NodeAggregateID, func(_ *graph, agg *aggregateState) error {
			for _, n := range agg.nodes {
				n.typeName = e.NewNodeTypeName
			}
			return nil
		})
	case event.NodeAggregateWasMoved:
		return p.withAggregate(e.ContentStreamID, e.NodeAggregateID, func(_ *graph, agg *aggregateState) error {
			for _, point := range e.AffectedDimensionSpacePoints.Points() {
				if edge, ok := agg.coverage[point.Hash()]; ok {
					edge.parent = e.NewParentNodeAggregateID
				}
			}
			return nil
		})
	}
	// Workspace events do not touch the graph.
	return nil
}

func (p *Projection) graph(cs node.ContentStreamID) (*graph, error) {
	g, ok := p.graphs[cs]
	if !ok {
		return nil, fmt.Errorf("content stream %s is not projected", cs)
	}
	return g, nil
}

func (p *Projection) createNode(g *graph, id node.NodeAggregateID, origin dimension.OriginDimensionSpacePoint, covered dimension.DimensionSpacePointSet, parent node.NodeAggregateID, typeName node.NodeTypeName, name node.NodeName, classification node.Classification, properties node.SerializedPropertyValues) {
	agg := g.aggregate(id)
	originHash := origin.Hash()
	agg.nodes[originHash] = &nodeState{
		origin:         origin,
		typeName:       typeName,
		name:           name,
		classification: classification,
		properties:     properties.ApplyTo(nil),
	}
	for _, point := range covered.Points() {
		agg.coverage[point.Hash()] = &edge{point: point, origin: originHash, parent: parent}
	}
	agg.dropUncoveredNodes()
}

func (p *Projection) withAggregate(cs node.ContentStreamID, id node.NodeAggregateID, fn func(*graph, *aggregateState) error) error {
	g, err := p.graph(cs)
	if err != nil {
		return err
	}
	agg, ok := g.aggregates[id]
	if !ok {
		return fmt.Errorf("node aggregate %s is not projected in %s", id, cs)
	}
	return fn(g, agg)
}

func (p *Projection) withNode(cs node.ContentStreamID, id node.NodeAggregateID, origin dimension.OriginDimensionSpacePoint, fn func(*nodeState)) error {
	return p.withAggregate(cs, id, func(_ *graph, agg *aggregateState) error {
		n, ok := agg.nodes[origin.Hash()]
		if !ok {
			return fmt.Errorf("node aggregate %s has no node in %s", id, origin)
		}
		fn(n)
		return nil
	})
}

func (p *Projection) tag(cs node.ContentStreamID, id node.NodeAggregateID, points dimension.DimensionSpacePointSet, tag node.SubtreeTag, on bool) error {
	return p.withAggregate(cs, id, func(_ *graph, agg *aggregateState) error {
		for _, point := range points.Points() {
			if _, covered := agg.coverage[point.Hash()]; !covered {
				continue
			}
			agg.setTag(point, tag, on)
		}
		return nil
	})
}

func (p *Projection) createVariant(cs node.ContentStreamID, id node.NodeAggregateID, source, target dimension.OriginDimensionSpacePoint, coverage dimension.DimensionSpacePointSet) error {
	return p.withAggregate(cs, id, func(_ *graph, agg *aggregateState) error {
		sourceNode, ok := agg.nodes[source.Hash()]
		if !ok {
			return fmt.Errorf("node aggregate %s has no node in %s", id, source)
		}
		targetHash := target.Hash()
		variant := *sourceNode
		variant.origin = target
		variant.properties = sourceNode.properties.Clone()
		variant.references = cloneReferences(sourceNode.references)
		agg.nodes[targetHash] = &variant

		for _, point := range coverage.Points() {
			parent := agg.parentIn(point, source)
			agg.coverage[point.Hash()] = &edge{point: point, origin: targetHash, parent: parent}
		}
		agg.dropUncoveredNodes()
		return nil
	})
}

// remove drops the aggregate and every descendant from the affected covered
// points, walking children with a worklist per point.
func (p *Projection) remove(e event.NodeAggregateWasRemoved) error {
	return p.withAggregate(e.ContentStreamID, e.NodeAggregateID, func(g *graph, target *aggregateState) error {
		touched := map[node.NodeAggregateID]*aggregateState{target.id: target}
		for _, point := range e.AffectedCoveredDimensionSpacePoints.Points() {
			hash := point.Hash()
			visited := map[node.NodeAggregateID]bool{}
			queue := []node.NodeAggregateID{target.id}
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				if visited[current] {
					continue
				}
				visited[current] = true
				for _, child := range g.aggregates {
					if edge, ok := child.coverage[hash]; ok && edge.parent == current && !visited[child.id] {
						queue = append(queue, child.id)
					}
				}
				agg, ok := g.aggregates[current]
				if !ok {
					continue
				}
				agg.uncover(point)
				touched[current] = agg
			}
		}
		for _, origin := range e.AffectedOccupiedDimensionSpacePoints.Points() {
			delete(target.nodes, origin.Hash())
		}
		for id, agg := range touched {
			agg.dropUncoveredNodes()
			if len(agg.nodes) == 0 {
				delete(g.aggregates, id)
			}
		}
		return nil
	})
}
