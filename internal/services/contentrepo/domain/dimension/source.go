package dimension

import (
	"fmt"
	"io"
	"os"
	"sort"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

// ContentDimensionValue is one value of a dimension. Specializations fall
// back to their generalization.
type ContentDimensionValue struct {
	Value          string
	Generalization string
	Depth          int
}

// ContentDimension is a named dimension with a forest of values.
type ContentDimension struct {
	Name   string
	values []ContentDimensionValue
	index  map[string]int
}

// Values returns the values in depth-first declaration order.
func (d ContentDimension) Values() []ContentDimensionValue {
	return append([]ContentDimensionValue(nil), d.values...)
}

// Value returns the named value, if declared.
func (d ContentDimension) Value(value string) (ContentDimensionValue, bool) {
	i, ok := d.index[value]
	if !ok {
		return ContentDimensionValue{}, false
	}
	return d.values[i], true
}

// Ancestors returns value followed by its transitive generalizations.
func (d ContentDimension) Ancestors(value string) []string {
	var chain []string
	for current, ok := d.Value(value); ok; current, ok = d.Value(current.Generalization) {
		chain = append(chain, current.Value)
		if current.Generalization == "" {
			break
		}
	}
	return chain
}

// DescendantsOrSelf returns value followed by its transitive specializations.
func (d ContentDimension) DescendantsOrSelf(value string) []string {
	if _, ok := d.Value(value); !ok {
		return nil
	}
	out := []string{value}
	for i := 0; i < len(out); i++ {
		for _, candidate := range d.values {
			if candidate.Generalization == out[i] {
				out = append(out, candidate.Value)
			}
		}
	}
	return out
}

// Source is the static dimension configuration.
type Source struct {
	dimensions []ContentDimension
	index      map[string]int
	allowed    []map[string]string
}

// Dimensions returns the dimensions ordered by name.
func (s *Source) Dimensions() []ContentDimension {
	return append([]ContentDimension(nil), s.dimensions...)
}

// Dimension returns the named dimension, if configured.
func (s *Source) Dimension(name string) (ContentDimension, bool) {
	i, ok := s.index[name]
	if !ok {
		return ContentDimension{}, false
	}
	return s.dimensions[i], true
}

// NewPoint validates coordinates against the configured dimensions.
func (s *Source) NewPoint(coordinates map[string]string) (DimensionSpacePoint, error) {
	for dimension, value := range coordinates {
		d, ok := s.Dimension(dimension)
		if !ok {
			return DimensionSpacePoint{}, invalidConfiguration(fmt.Sprintf("unknown dimension %q", dimension))
		}
		if _, ok := d.Value(value); !ok {
			return DimensionSpacePoint{}, invalidConfiguration(fmt.Sprintf("unknown value %q for dimension %q", value, dimension))
		}
	}
	return NewDimensionSpacePoint(coordinates), nil
}

type sourceFile struct {
	Dimensions      map[string]dimensionFile `yaml:"dimensions"`
	AllowedSubspace []map[string]string      `yaml:"allowedSubspace"`
}

type dimensionFile struct {
	Values map[string]valueFile `yaml:"values"`
}

type valueFile struct {
	Specializations map[string]valueFile `yaml:"specializations"`
}

// LoadSourceFile reads a YAML dimension configuration from path.
func LoadSourceFile(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dimension source: %w", err)
	}
	defer file.Close()
	return LoadSource(file)
}

// LoadSource reads a YAML dimension configuration. An empty document yields a
// source without dimensions.
func LoadSource(r io.Reader) (*Source, error) {
	var parsed sourceFile
	if err := yaml.NewDecoder(r).Decode(&parsed); err != nil && err != io.EOF {
		return nil, invalidConfiguration(fmt.Sprintf("decode yaml: %v", err))
	}

	names := make([]string, 0, len(parsed.Dimensions))
	for name := range parsed.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	source := &Source{index: make(map[string]int, len(names))}
	for _, name := range names {
		dimension := ContentDimension{Name: name, index: map[string]int{}}
		if len(parsed.Dimensions[name].Values) == 0 {
			return nil, invalidConfiguration(fmt.Sprintf("dimension %q declares no values", name))
		}
		if err := dimension.collect(parsed.Dimensions[name].Values, "", 0); err != nil {
			return nil, err
		}
		source.index[name] = len(source.dimensions)
		source.dimensions = append(source.dimensions, dimension)
	}

	for _, coordinates := range parsed.AllowedSubspace {
		if len(coordinates) != len(source.dimensions) {
			return nil, invalidConfiguration(fmt.Sprintf("allowed point %v must set every dimension", coordinates))
		}
		if _, err := source.NewPoint(coordinates); err != nil {
			return nil, err
		}
		source.allowed = append(source.allowed, coordinates)
	}
	return source, nil
}

func (d *ContentDimension) collect(values map[string]valueFile, generalization string, depth int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "" {
			return invalidConfiguration(fmt.Sprintf("dimension %q declares an empty value", d.Name))
		}
		if _, exists := d.index[key]; exists {
			return invalidConfiguration(fmt.Sprintf("dimension %q declares value %q twice", d.Name, key))
		}
		d.index[key] = len(d.values)
		d.values = append(d.values, ContentDimensionValue{Value: key, Generalization: generalization, Depth: depth})
		if err := d.collect(values[key].Specializations, key, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func invalidConfiguration(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidDimensionConfiguration,
		"invalid dimension configuration: "+reason, map[string]string{"Reason": reason})
}
