// Package dimension implements dimension space points, their sets, the
// allowed dimension subspace and the inter-dimensional variation graph.
package dimension

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/louisbranch/contentrepository/internal/platform/encoding"
)

// DimensionSpacePoint is an immutable coordinate mapping dimension names to
// values, such as {language: de, market: ch}.
type DimensionSpacePoint struct {
	coordinates map[string]string
	hash        string
}

// NewDimensionSpacePoint copies coordinates into a new point.
func NewDimensionSpacePoint(coordinates map[string]string) DimensionSpacePoint {
	copied := make(map[string]string, len(coordinates))
	for dimension, value := range coordinates {
		copied[dimension] = value
	}
	return DimensionSpacePoint{coordinates: copied, hash: hashCoordinates(copied)}
}

// EmptyDimensionSpacePoint is the point of a repository without dimensions.
// Root node aggregates originate in it.
func EmptyDimensionSpacePoint() DimensionSpacePoint {
	return NewDimensionSpacePoint(nil)
}

func hashCoordinates(coordinates map[string]string) string {
	if coordinates == nil {
		coordinates = map[string]string{}
	}
	hash, err := encoding.ContentHash(coordinates)
	if err != nil {
		// A map of strings always encodes.
		panic(fmt.Sprintf("hash dimension space point: %v", err))
	}
	return hash
}

// Hash returns a content-derived key that is equal for equal points.
func (p DimensionSpacePoint) Hash() string {
	if p.hash == "" {
		return hashCoordinates(p.coordinates)
	}
	return p.hash
}

// Equal reports whether both points have the same coordinates.
func (p DimensionSpacePoint) Equal(other DimensionSpacePoint) bool {
	return p.Hash() == other.Hash()
}

// Coordinate returns the value of dimension, if set.
func (p DimensionSpacePoint) Coordinate(dimension string) (string, bool) {
	value, ok := p.coordinates[dimension]
	return value, ok
}

// Coordinates returns a copy of the coordinate mapping.
func (p DimensionSpacePoint) Coordinates() map[string]string {
	out := make(map[string]string, len(p.coordinates))
	for dimension, value := range p.coordinates {
		out[dimension] = value
	}
	return out
}

// Dimensions returns the dimension names of the point in sorted order.
func (p DimensionSpacePoint) Dimensions() []string {
	names := make([]string, 0, len(p.coordinates))
	for dimension := range p.coordinates {
		names = append(names, dimension)
	}
	sort.Strings(names)
	return names
}

// Vary returns a copy of the point with dimension set to value.
func (p DimensionSpacePoint) Vary(dimension, value string) DimensionSpacePoint {
	coordinates := p.Coordinates()
	coordinates[dimension] = value
	return NewDimensionSpacePoint(coordinates)
}

// IsZero reports whether the point has no coordinates.
func (p DimensionSpacePoint) IsZero() bool {
	return len(p.coordinates) == 0
}

// String returns the canonical JSON form.
func (p DimensionSpacePoint) String() string {
	data, err := encoding.CanonicalJSON(p.Coordinates())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MarshalJSON encodes the point as {dimension: value, ...}.
func (p DimensionSpacePoint) MarshalJSON() ([]byte, error) {
	return encoding.CanonicalJSON(p.Coordinates())
}

// UnmarshalJSON decodes {dimension: value, ...}.
func (p *DimensionSpacePoint) UnmarshalJSON(data []byte) error {
	var coordinates map[string]string
	if err := json.Unmarshal(data, &coordinates); err != nil {
		return fmt.Errorf("decode dimension space point: %w", err)
	}
	*p = NewDimensionSpacePoint(coordinates)
	return nil
}

// OriginDimensionSpacePoint is the point in which a node's content was
// authored. A node is visible in every point it covers, but occupies only
// its origin.
type OriginDimensionSpacePoint struct {
	DimensionSpacePoint
}

// AsOrigin tags the point as an origin.
func (p DimensionSpacePoint) AsOrigin() OriginDimensionSpacePoint {
	return OriginDimensionSpacePoint{DimensionSpacePoint: p}
}

// NewOriginDimensionSpacePoint builds an origin from coordinates.
func NewOriginDimensionSpacePoint(coordinates map[string]string) OriginDimensionSpacePoint {
	return NewDimensionSpacePoint(coordinates).AsOrigin()
}

// ToDimensionSpacePoint returns the plain point.
func (o OriginDimensionSpacePoint) ToDimensionSpacePoint() DimensionSpacePoint {
	return o.DimensionSpacePoint
}

// Equal reports whether both origins have the same coordinates.
func (o OriginDimensionSpacePoint) Equal(other OriginDimensionSpacePoint) bool {
	return o.DimensionSpacePoint.Equal(other.DimensionSpacePoint)
}
