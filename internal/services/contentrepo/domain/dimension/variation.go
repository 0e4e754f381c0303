package dimension

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Relation describes how a target point relates to a source point.
type Relation int

const (
	RelationSame Relation = iota
	RelationSpecialization
	RelationGeneralization
	RelationPeer
)

// Variants groups the points related to one point.
type Variants struct {
	Generalizations DimensionSpacePointSet
	Specializations DimensionSpacePointSet
	Peers           DimensionSpacePointSet
}

type variationEntry struct {
	generalizations DimensionSpacePointSet
	specializations DimensionSpacePointSet
}

// VariationGraph resolves generalizations and specializations of points in
// the allowed subspace. Results are memoized; the graph never changes after
// construction.
type VariationGraph struct {
	source    *Source
	zookeeper *Zookeeper

	memo  sync.Map // point hash -> variationEntry
	group singleflight.Group
}

// NewVariationGraph builds the graph for source restricted by zookeeper.
func NewVariationGraph(source *Source, zookeeper *Zookeeper) *VariationGraph {
	return &VariationGraph{source: source, zookeeper: zookeeper}
}

// GetSpecializationSet returns the transitive specializations of point,
// excluding point itself, ordered from the closest to the furthest.
func (g *VariationGraph) GetSpecializationSet(point DimensionSpacePoint) DimensionSpacePointSet {
	return g.entry(point).specializations
}

// GetGeneralizationSet returns the transitive generalizations of point,
// excluding point itself, ordered from the closest to the furthest.
func (g *VariationGraph) GetGeneralizationSet(point DimensionSpacePoint) DimensionSpacePointSet {
	return g.entry(point).generalizations
}

// GetWeight returns the depth of each coordinate of point in its dimension.
func (g *VariationGraph) GetWeight(point DimensionSpacePoint) VariationWeight {
	depths := map[string]int{}
	for dimension, value := range point.coordinates {
		if d, ok := g.source.Dimension(dimension); ok {
			if v, ok := d.Value(value); ok {
				depths[dimension] = v.Depth
			}
		}
	}
	return NewVariationWeight(depths)
}

// GetVariants returns the generalizations, specializations and peers of
// point. Peers share a generalization with point without being related to
// it directly.
func (g *VariationGraph) GetVariants(point DimensionSpacePoint) Variants {
	entry := g.entry(point)
	ownGeneralizations := entry.generalizations.With(point)

	peers := NewDimensionSpacePointSet()
	for _, candidate := range g.zookeeper.AllowedDimensionSubspace().Points() {
		if candidate.Equal(point) || entry.generalizations.Contains(candidate) || entry.specializations.Contains(candidate) {
			continue
		}
		candidateGeneralizations := g.entry(candidate).generalizations.With(candidate)
		if !candidateGeneralizations.Intersect(ownGeneralizations).IsEmpty() {
			peers = peers.With(candidate)
		}
	}
	return Variants{
		Generalizations: entry.generalizations,
		Specializations: entry.specializations,
		Peers:           peers,
	}
}

// IsSpecializationOf reports whether candidate is a strict specialization of
// point.
func (g *VariationGraph) IsSpecializationOf(candidate, point DimensionSpacePoint) bool {
	return g.GetSpecializationSet(point).Contains(candidate)
}

// Relation classifies target relative to source.
func (g *VariationGraph) Relation(source, target DimensionSpacePoint) Relation {
	switch {
	case source.Equal(target):
		return RelationSame
	case g.GetSpecializationSet(source).Contains(target):
		return RelationSpecialization
	case g.GetGeneralizationSet(source).Contains(target):
		return RelationGeneralization
	default:
		return RelationPeer
	}
}

// GetPrimaryGeneralization returns the closest generalization of point.
func (g *VariationGraph) GetPrimaryGeneralization(point DimensionSpacePoint) (DimensionSpacePoint, bool) {
	points := g.GetGeneralizationSet(point).Points()
	if len(points) == 0 {
		return DimensionSpacePoint{}, false
	}
	return points[0], true
}

func (g *VariationGraph) entry(point DimensionSpacePoint) variationEntry {
	key := point.Hash()
	if cached, ok := g.memo.Load(key); ok {
		return cached.(variationEntry)
	}
	computed, _, _ := g.group.Do(key, func() (any, error) {
		if cached, ok := g.memo.Load(key); ok {
			return cached, nil
		}
		entry := g.compute(point)
		g.memo.Store(key, entry)
		return entry, nil
	})
	return computed.(variationEntry)
}

func (g *VariationGraph) compute(point DimensionSpacePoint) variationEntry {
	empty := variationEntry{generalizations: NewDimensionSpacePointSet(), specializations: NewDimensionSpacePointSet()}
	if len(point.coordinates) != len(g.source.dimensions) {
		return empty
	}

	up := make([][]string, 0, len(g.source.dimensions))
	down := make([][]string, 0, len(g.source.dimensions))
	for _, dimension := range g.source.dimensions {
		value, ok := point.Coordinate(dimension.Name)
		if !ok {
			return empty
		}
		ancestors := dimension.Ancestors(value)
		if len(ancestors) == 0 {
			return empty
		}
		up = append(up, ancestors)
		down = append(down, dimension.DescendantsOrSelf(value))
	}

	return variationEntry{
		generalizations: g.sortedByDistance(point, g.combine(up, point)),
		specializations: g.sortedByDistance(point, g.combine(down, point)),
	}
}

// combine builds the cartesian product of per-dimension candidate values,
// keeping allowed points other than self.
func (g *VariationGraph) combine(candidates [][]string, self DimensionSpacePoint) []DimensionSpacePoint {
	combinations := []map[string]string{{}}
	for i, dimension := range g.source.dimensions {
		next := make([]map[string]string, 0, len(combinations)*len(candidates[i]))
		for _, combination := range combinations {
			for _, value := range candidates[i] {
				extended := make(map[string]string, len(combination)+1)
				for k, v := range combination {
					extended[k] = v
				}
				extended[dimension.Name] = value
				next = append(next, extended)
			}
		}
		combinations = next
	}

	var out []DimensionSpacePoint
	for _, coordinates := range combinations {
		candidate := NewDimensionSpacePoint(coordinates)
		if candidate.Equal(self) || !g.zookeeper.Contains(candidate) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func (g *VariationGraph) sortedByDistance(origin DimensionSpacePoint, points []DimensionSpacePoint) DimensionSpacePointSet {
	originTotal := g.GetWeight(origin).Total()
	distance := func(p DimensionSpacePoint) int {
		d := g.GetWeight(p).Total() - originTotal
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(points, func(i, j int) bool {
		di, dj := distance(points[i]), distance(points[j])
		if di != dj {
			return di < dj
		}
		return points[i].String() < points[j].String()
	})
	return NewDimensionSpacePointSet(points...)
}
