package nodetype

import (
	"fmt"
	"io"
	"os"
	"sort"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"gopkg.in/yaml.v3"
)

// Definition is the declared, unresolved configuration of a node type.
type Definition struct {
	Abstract    bool                                        `yaml:"abstract"`
	SuperTypes  map[node.NodeTypeName]bool                  `yaml:"superTypes"`
	Properties  map[node.PropertyName]PropertyConfiguration `yaml:"properties"`
	ChildNodes  map[node.NodeName]ChildNodeConfiguration    `yaml:"childNodes"`
	Constraints ConstraintConfiguration                     `yaml:"constraints"`
}

// PropertyConfiguration declares a property or reference.
type PropertyConfiguration struct {
	Type         string                                      `yaml:"type"`
	Scope        node.PropertyScope                          `yaml:"scope"`
	DefaultValue any                                         `yaml:"defaultValue"`
	Constraints  ConstraintConfiguration                     `yaml:"constraints"`
	Properties   map[node.PropertyName]PropertyConfiguration `yaml:"properties"`
}

// ChildNodeConfiguration declares a tethered child.
type ChildNodeConfiguration struct {
	Type        node.NodeTypeName       `yaml:"type"`
	Constraints ConstraintConfiguration `yaml:"constraints"`
}

// ConstraintConfiguration wraps node type constraints.
type ConstraintConfiguration struct {
	NodeTypes Constraints `yaml:"nodeTypes"`
}

// Manager resolves node types by name.
type Manager struct {
	types map[node.NodeTypeName]*NodeType
}

// LoadManagerFile reads a YAML schema from path.
func LoadManagerFile(path string) (*Manager, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node type schema: %w", err)
	}
	defer file.Close()
	return LoadManager(file)
}

// LoadManager reads a YAML schema mapping node type names to definitions.
func LoadManager(r io.Reader) (*Manager, error) {
	var definitions map[node.NodeTypeName]Definition
	if err := yaml.NewDecoder(r).Decode(&definitions); err != nil && err != io.EOF {
		return nil, invalidConfiguration(fmt.Sprintf("decode yaml: %v", err))
	}
	return NewManager(definitions)
}

// NewManager resolves definitions, merging inherited declarations. The root
// type is added when missing.
func NewManager(definitions map[node.NodeTypeName]Definition) (*Manager, error) {
	if definitions == nil {
		definitions = map[node.NodeTypeName]Definition{}
	}
	if _, ok := definitions[RootNodeTypeName]; !ok {
		definitions[RootNodeTypeName] = Definition{
			Constraints: ConstraintConfiguration{NodeTypes: Constraints{Wildcard: true}},
		}
	}

	r := resolver{definitions: definitions, resolved: map[node.NodeTypeName]*NodeType{}, resolving: map[node.NodeTypeName]bool{}}
	names := make([]node.NodeTypeName, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		if _, err := r.resolve(name); err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		for _, tethered := range r.resolved[name].tethered {
			if _, ok := r.resolved[tethered.Type]; !ok {
				return nil, invalidConfiguration(fmt.Sprintf("tethered node %q of %q has unknown type %q", tethered.Name, name, tethered.Type))
			}
		}
		for propertyName, property := range r.resolved[name].properties {
			if err := property.Scope.Validate(); err != nil {
				return nil, invalidConfiguration(fmt.Sprintf("property %q of %q: %v", propertyName, name, err))
			}
		}
	}
	return &Manager{types: r.resolved}, nil
}

// GetNodeType returns the node type called name.
func (m *Manager) GetNodeType(name node.NodeTypeName) (*NodeType, error) {
	if t, ok := m.types[name]; ok {
		return t, nil
	}
	return nil, apperrors.WithMetadata(apperrors.CodeNodeTypeNotFound,
		fmt.Sprintf("node type %q not found", name),
		map[string]string{"NodeTypeName": string(name)})
}

// HasNodeType reports whether name is declared.
func (m *Manager) HasNodeType(name node.NodeTypeName) bool {
	_, ok := m.types[name]
	return ok
}

// NodeTypeNames returns every declared name in sorted order.
func (m *Manager) NodeTypeNames() []node.NodeTypeName {
	names := make([]node.NodeTypeName, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

type resolver struct {
	definitions map[node.NodeTypeName]Definition
	resolved    map[node.NodeTypeName]*NodeType
	resolving   map[node.NodeTypeName]bool
}

func (r *resolver) resolve(name node.NodeTypeName) (*NodeType, error) {
	if t, ok := r.resolved[name]; ok {
		return t, nil
	}
	definition, ok := r.definitions[name]
	if !ok {
		return nil, invalidConfiguration(fmt.Sprintf("unknown node type %q", name))
	}
	if r.resolving[name] {
		return nil, invalidConfiguration(fmt.Sprintf("node type %q inherits from itself", name))
	}
	r.resolving[name] = true
	defer delete(r.resolving, name)

	t := &NodeType{
		name:             name,
		abstract:         definition.Abstract,
		properties:       map[node.PropertyName]PropertyDefinition{},
		tethered:         map[node.NodeName]TetheredNodeDefinition{},
		childConstraints: Constraints{},
	}

	superNames := make([]node.NodeTypeName, 0, len(definition.SuperTypes))
	for superName, enabled := range definition.SuperTypes {
		if enabled {
			superNames = append(superNames, superName)
		}
	}
	sort.Slice(superNames, func(i, j int) bool { return superNames[i] < superNames[j] })
	for _, superName := range superNames {
		superType, err := r.resolve(superName)
		if err != nil {
			return nil, err
		}
		t.superTypes = append(t.superTypes, superType)
		for propertyName, property := range superType.properties {
			t.properties[propertyName] = property
		}
		for childName, tethered := range superType.tethered {
			t.tethered[childName] = tethered
		}
		for constraint, allowed := range superType.childConstraints {
			t.childConstraints[constraint] = allowed
		}
	}

	for propertyName, property := range definition.Properties {
		t.properties[propertyName] = toPropertyDefinition(propertyName, property)
	}
	for childName, child := range definition.ChildNodes {
		t.tethered[childName] = TetheredNodeDefinition{
			Name:        childName,
			Type:        child.Type,
			Constraints: copyConstraints(child.Constraints.NodeTypes),
		}
	}
	for constraint, allowed := range definition.Constraints.NodeTypes {
		t.childConstraints[constraint] = allowed
	}

	r.resolved[name] = t
	return t, nil
}

func toPropertyDefinition(name node.PropertyName, property PropertyConfiguration) PropertyDefinition {
	definition := PropertyDefinition{
		Name:         name,
		Type:         property.Type,
		Scope:        property.Scope,
		DefaultValue: property.DefaultValue,
		Constraints:  copyConstraints(property.Constraints.NodeTypes),
	}
	if len(property.Properties) > 0 {
		definition.Properties = make(map[node.PropertyName]PropertyDefinition, len(property.Properties))
		for nestedName, nested := range property.Properties {
			definition.Properties[nestedName] = toPropertyDefinition(nestedName, nested)
		}
	}
	return definition
}

func copyConstraints(source Constraints) Constraints {
	out := make(Constraints, len(source))
	for name, allowed := range source {
		out[name] = allowed
	}
	return out
}

func invalidConfiguration(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidNodeTypeConfiguration,
		"invalid node type configuration: "+reason, map[string]string{"Reason": reason})
}
