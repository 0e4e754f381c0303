package dimension

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/contentrepository/internal/platform/encoding"
)

// DimensionSpacePointSet is an immutable set of points. Iteration follows
// insertion order; equality ignores order. Every operation returns a new set.
type DimensionSpacePointSet struct {
	points []DimensionSpacePoint
	index  map[string]int
}

// NewDimensionSpacePointSet builds a set, dropping duplicates.
func NewDimensionSpacePointSet(points ...DimensionSpacePoint) DimensionSpacePointSet {
	set := DimensionSpacePointSet{index: make(map[string]int, len(points))}
	for _, point := range points {
		set.add(point)
	}
	return set
}

func (s *DimensionSpacePointSet) add(point DimensionSpacePoint) {
	if s.index == nil {
		s.index = map[string]int{}
	}
	hash := point.Hash()
	if _, ok := s.index[hash]; ok {
		return
	}
	s.index[hash] = len(s.points)
	s.points = append(s.points, point)
}

// Contains reports whether point is part of the set.
func (s DimensionSpacePointSet) Contains(point DimensionSpacePoint) bool {
	_, ok := s.index[point.Hash()]
	return ok
}

// Len returns the number of points.
func (s DimensionSpacePointSet) Len() int {
	return len(s.points)
}

// IsEmpty reports whether the set has no points.
func (s DimensionSpacePointSet) IsEmpty() bool {
	return len(s.points) == 0
}

// Points returns the points in iteration order.
func (s DimensionSpacePointSet) Points() []DimensionSpacePoint {
	return append([]DimensionSpacePoint(nil), s.points...)
}

// With returns a new set extended by points.
func (s DimensionSpacePointSet) With(points ...DimensionSpacePoint) DimensionSpacePointSet {
	out := NewDimensionSpacePointSet(s.points...)
	for _, point := range points {
		out.add(point)
	}
	return out
}

// Union returns the points contained in either set.
func (s DimensionSpacePointSet) Union(other DimensionSpacePointSet) DimensionSpacePointSet {
	return s.With(other.points...)
}

// Intersect returns the points contained in both sets, in receiver order.
func (s DimensionSpacePointSet) Intersect(other DimensionSpacePointSet) DimensionSpacePointSet {
	out := NewDimensionSpacePointSet()
	for _, point := range s.points {
		if other.Contains(point) {
			out.add(point)
		}
	}
	return out
}

// Difference returns the points of the receiver not contained in other.
func (s DimensionSpacePointSet) Difference(other DimensionSpacePointSet) DimensionSpacePointSet {
	out := NewDimensionSpacePointSet()
	for _, point := range s.points {
		if !other.Contains(point) {
			out.add(point)
		}
	}
	return out
}

// Equal reports whether both sets contain the same points, in any order.
func (s DimensionSpacePointSet) Equal(other DimensionSpacePointSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, point := range s.points {
		if !other.Contains(point) {
			return false
		}
	}
	return true
}

// Hash returns an order independent content hash.
func (s DimensionSpacePointSet) Hash() string {
	hashes := make([]string, 0, len(s.points))
	for _, point := range s.points {
		hashes = append(hashes, point.Hash())
	}
	sort.Strings(hashes)
	hash, err := encoding.ContentHash(hashes)
	if err != nil {
		panic(fmt.Sprintf("hash dimension space point set: %v", err))
	}
	return hash
}

// String lists the points in iteration order.
func (s DimensionSpacePointSet) String() string {
	parts := make([]string, 0, len(s.points))
	for _, point := range s.points {
		parts = append(parts, point.String())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// MarshalJSON encodes the set as an array of points.
func (s DimensionSpacePointSet) MarshalJSON() ([]byte, error) {
	points := s.points
	if points == nil {
		points = []DimensionSpacePoint{}
	}
	return json.Marshal(points)
}

// UnmarshalJSON decodes an array of points.
func (s *DimensionSpacePointSet) UnmarshalJSON(data []byte) error {
	var points []DimensionSpacePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("decode dimension space point set: %w", err)
	}
	*s = NewDimensionSpacePointSet(points...)
	return nil
}

// OriginDimensionSpacePointSet is a set of origins.
type OriginDimensionSpacePointSet struct {
	set DimensionSpacePointSet
}

// NewOriginDimensionSpacePointSet builds a set of origins.
func NewOriginDimensionSpacePointSet(origins ...OriginDimensionSpacePoint) OriginDimensionSpacePointSet {
	set := NewDimensionSpacePointSet()
	for _, origin := range origins {
		set.add(origin.DimensionSpacePoint)
	}
	return OriginDimensionSpacePointSet{set: set}
}

// Contains reports whether origin is part of the set.
func (s OriginDimensionSpacePointSet) Contains(origin OriginDimensionSpacePoint) bool {
	return s.set.Contains(origin.DimensionSpacePoint)
}

// Len returns the number of origins.
func (s OriginDimensionSpacePointSet) Len() int { return s.set.Len() }

// IsEmpty reports whether the set has no origins.
func (s OriginDimensionSpacePointSet) IsEmpty() bool { return s.set.IsEmpty() }

// Points returns the origins in iteration order.
func (s OriginDimensionSpacePointSet) Points() []OriginDimensionSpacePoint {
	out := make([]OriginDimensionSpacePoint, 0, s.set.Len())
	for _, point := range s.set.points {
		out = append(out, point.AsOrigin())
	}
	return out
}

// ToDimensionSpacePointSet returns the origins as plain points.
func (s OriginDimensionSpacePointSet) ToDimensionSpacePointSet() DimensionSpacePointSet {
	return NewDimensionSpacePointSet(s.set.points...)
}

// Equal reports whether both sets contain the same origins.
func (s OriginDimensionSpacePointSet) Equal(other OriginDimensionSpacePointSet) bool {
	return s.set.Equal(other.set)
}

// String lists the origins in iteration order.
func (s OriginDimensionSpacePointSet) String() string { return s.set.String() }

// MarshalJSON encodes the set as an array of points.
func (s OriginDimensionSpacePointSet) MarshalJSON() ([]byte, error) {
	return s.set.MarshalJSON()
}

// UnmarshalJSON decodes an array of points.
func (s *OriginDimensionSpacePointSet) UnmarshalJSON(data []byte) error {
	return s.set.UnmarshalJSON(data)
}

// OriginsOf tags every point of set as origin.
func OriginsOf(set DimensionSpacePointSet) OriginDimensionSpacePointSet {
	return OriginDimensionSpacePointSet{set: NewDimensionSpacePointSet(set.points...)}
}
