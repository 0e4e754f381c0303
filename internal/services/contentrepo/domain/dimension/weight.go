package dimension

import (
	"sort"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
)

// VariationWeight is the per-dimension fallback depth of a point.
type VariationWeight struct {
	depths map[string]int
}

// NewVariationWeight builds a weight from per-dimension depths.
func NewVariationWeight(depths map[string]int) VariationWeight {
	copied := make(map[string]int, len(depths))
	for dimension, depth := range depths {
		copied[dimension] = depth
	}
	return VariationWeight{depths: copied}
}

// Depth returns the depth in dimension.
func (w VariationWeight) Depth(dimension string) int {
	return w.depths[dimension]
}

// Total returns the sum over all dimensions.
func (w VariationWeight) Total() int {
	total := 0
	for _, depth := range w.depths {
		total += depth
	}
	return total
}

// CanBeComparedTo reports whether both weights cover the same dimensions.
func (w VariationWeight) CanBeComparedTo(other VariationWeight) bool {
	if len(w.depths) != len(other.depths) {
		return false
	}
	for dimension := range w.depths {
		if _, ok := other.depths[dimension]; !ok {
			return false
		}
	}
	return true
}

// Decrease returns the per-dimension difference w - other.
func (w VariationWeight) Decrease(other VariationWeight) (VariationWeight, error) {
	if !w.CanBeComparedTo(other) {
		return VariationWeight{}, incomparable()
	}
	out := make(map[string]int, len(w.depths))
	for dimension, depth := range w.depths {
		out[dimension] = depth - other.depths[dimension]
	}
	return VariationWeight{depths: out}, nil
}

// Compare orders weights by total depth, breaking ties by dimension name.
// It returns -1, 0 or 1.
func (w VariationWeight) Compare(other VariationWeight) (int, error) {
	if !w.CanBeComparedTo(other) {
		return 0, incomparable()
	}
	if a, b := w.Total(), other.Total(); a != b {
		if a < b {
			return -1, nil
		}
		return 1, nil
	}
	dimensions := make([]string, 0, len(w.depths))
	for dimension := range w.depths {
		dimensions = append(dimensions, dimension)
	}
	sort.Strings(dimensions)
	for _, dimension := range dimensions {
		if a, b := w.depths[dimension], other.depths[dimension]; a != b {
			if a < b {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}

func incomparable() error {
	return apperrors.New(apperrors.CodeVariationWeightsIncomparable, "variation weights are built from different dimensions")
}
