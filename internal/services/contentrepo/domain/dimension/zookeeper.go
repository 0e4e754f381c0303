package dimension

// Zookeeper computes the allowed dimension subspace: the legal combinations
// of dimension values.
type Zookeeper struct {
	allowed DimensionSpacePointSet
}

// NewZookeeper computes the allowed subspace from source. Without an
// explicit list every combination of values is allowed.
func NewZookeeper(source *Source) *Zookeeper {
	if len(source.allowed) > 0 {
		points := make([]DimensionSpacePoint, 0, len(source.allowed))
		for _, coordinates := range source.allowed {
			points = append(points, NewDimensionSpacePoint(coordinates))
		}
		return &Zookeeper{allowed: NewDimensionSpacePointSet(points...)}
	}

	combinations := []map[string]string{{}}
	for _, dimension := range source.dimensions {
		next := make([]map[string]string, 0, len(combinations)*len(dimension.values))
		for _, combination := range combinations {
			for _, value := range dimension.values {
				extended := make(map[string]string, len(combination)+1)
				for k, v := range combination {
					extended[k] = v
				}
				extended[dimension.Name] = value.Value
				next = append(next, extended)
			}
		}
		combinations = next
	}
	points := make([]DimensionSpacePoint, 0, len(combinations))
	for _, coordinates := range combinations {
		points = append(points, NewDimensionSpacePoint(coordinates))
	}
	return &Zookeeper{allowed: NewDimensionSpacePointSet(points...)}
}

// AllowedDimensionSubspace returns every legal point.
func (z *Zookeeper) AllowedDimensionSubspace() DimensionSpacePointSet {
	return z.allowed
}

// Contains reports whether point is legal.
func (z *Zookeeper) Contains(point DimensionSpacePoint) bool {
	return z.allowed.Contains(point)
}
