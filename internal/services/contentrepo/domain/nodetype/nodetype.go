// Package nodetype holds the node type schema: which properties, references
// and children a node of a given type may have.
package nodetype

import (
	"sort"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// RootNodeTypeName is the only node type that may be classified root.
const RootNodeTypeName node.NodeTypeName = "ContentRepository:Root"

// Wildcard matches every node type in constraint declarations.
const Wildcard node.NodeTypeName = "*"

// Constraints maps node type names (or "*") to allowed/disallowed.
type Constraints map[node.NodeTypeName]bool

// PropertyDefinition declares a property or a reference.
type PropertyDefinition struct {
	Name         node.PropertyName
	Type         string
	Scope        node.PropertyScope
	DefaultValue any
	// Constraints and Properties only apply to references.
	Constraints Constraints
	Properties  map[node.PropertyName]PropertyDefinition
}

// IsReference reports whether the definition declares a reference.
func (d PropertyDefinition) IsReference() bool {
	return d.Type == TypeReference || d.Type == TypeReferences
}

// TetheredNodeDefinition declares an auto-created child node.
type TetheredNodeDefinition struct {
	Name        node.NodeName
	Type        node.NodeTypeName
	Constraints Constraints
}

// NodeType is a resolved node type with inherited declarations merged in.
type NodeType struct {
	name             node.NodeTypeName
	abstract         bool
	superTypes       []*NodeType
	properties       map[node.PropertyName]PropertyDefinition
	tethered         map[node.NodeName]TetheredNodeDefinition
	childConstraints Constraints
}

// Name returns the node type name.
func (t *NodeType) Name() node.NodeTypeName { return t.name }

// IsAbstract reports whether the type may not be instantiated.
func (t *NodeType) IsAbstract() bool { return t.abstract }

// IsRoot reports whether the type is the root type.
func (t *NodeType) IsRoot() bool { return t.IsOfType(RootNodeTypeName) }

// IsOfType reports whether the type is name or inherits from it.
func (t *NodeType) IsOfType(name node.NodeTypeName) bool {
	visited := map[node.NodeTypeName]bool{}
	queue := []*NodeType{t}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.name] {
			continue
		}
		visited[current.name] = true
		if current.name == name {
			return true
		}
		queue = append(queue, current.superTypes...)
	}
	return false
}

// SuperTypeNames returns the declared supertypes in breadth-first order,
// nearest first.
func (t *NodeType) SuperTypeNames() []node.NodeTypeName {
	var out []node.NodeTypeName
	visited := map[node.NodeTypeName]bool{t.name: true}
	queue := append([]*NodeType(nil), t.superTypes...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.name] {
			continue
		}
		visited[current.name] = true
		out = append(out, current.name)
		queue = append(queue, current.superTypes...)
	}
	return out
}

// AllowsChildNodeType reports whether nodes of child may be placed directly
// below nodes of this type.
func (t *NodeType) AllowsChildNodeType(child *NodeType) bool {
	return t.childConstraints.Allows(child)
}

// AllowsGrandchildNodeType reports whether nodes of grandchild may be placed
// below the tethered child named parentName.
func (t *NodeType) AllowsGrandchildNodeType(parentName node.NodeName, grandchild *NodeType) bool {
	tethered, ok := t.tethered[parentName]
	if !ok {
		return false
	}
	return tethered.Constraints.Allows(grandchild)
}

// HasTetheredNode reports whether a child of name is auto-created.
func (t *NodeType) HasTetheredNode(name node.NodeName) bool {
	_, ok := t.tethered[name]
	return ok
}

// TypeOfTetheredNode returns the declared type of the tethered child name.
func (t *NodeType) TypeOfTetheredNode(name node.NodeName) (node.NodeTypeName, bool) {
	tethered, ok := t.tethered[name]
	return tethered.Type, ok
}

// TetheredNodes returns the tethered child declarations ordered by name.
func (t *NodeType) TetheredNodes() []TetheredNodeDefinition {
	out := make([]TetheredNodeDefinition, 0, len(t.tethered))
	for _, tethered := range t.tethered {
		out = append(out, tethered)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasProperty reports whether a non-reference property is declared.
func (t *NodeType) HasProperty(name node.PropertyName) bool {
	definition, ok := t.properties[name]
	return ok && !definition.IsReference()
}

// Property returns the declaration of a property or reference.
func (t *NodeType) Property(name node.PropertyName) (PropertyDefinition, bool) {
	definition, ok := t.properties[name]
	return definition, ok
}

// PropertyType returns the declared type of a property, or "" when absent.
func (t *NodeType) PropertyType(name node.PropertyName) string {
	return t.properties[name].Type
}

// PropertyScope returns the declared scope of a property; node by default.
func (t *NodeType) PropertyScope(name node.PropertyName) node.PropertyScope {
	definition, ok := t.properties[name]
	if !ok || definition.Scope == "" {
		return node.PropertyScopeNode
	}
	return definition.Scope
}

// HasReference reports whether a reference of name is declared.
func (t *NodeType) HasReference(name node.ReferenceName) bool {
	definition, ok := t.properties[node.PropertyName(name)]
	return ok && definition.IsReference()
}

// Reference returns the declaration of a reference.
func (t *NodeType) Reference(name node.ReferenceName) (PropertyDefinition, bool) {
	definition, ok := t.properties[node.PropertyName(name)]
	if !ok || !definition.IsReference() {
		return PropertyDefinition{}, false
	}
	return definition, true
}

// DefaultValues returns the declared default values of non-reference
// properties.
func (t *NodeType) DefaultValues() node.SerializedPropertyValues {
	out := node.SerializedPropertyValues{}
	for name, definition := range t.properties {
		if definition.IsReference() || definition.DefaultValue == nil {
			continue
		}
		out[name] = &node.SerializedPropertyValue{Value: definition.DefaultValue, Type: definition.Type}
	}
	return out
}

// Allows resolves whether candidate matches the constraints: an entry for
// the type itself wins, then the entry of the nearest supertype, then the
// wildcard. Without any match the type is not allowed.
func (c Constraints) Allows(candidate *NodeType) bool {
	if candidate == nil {
		return false
	}
	if allowed, ok := c[candidate.name]; ok {
		return allowed
	}
	for _, superType := range candidate.SuperTypeNames() {
		if allowed, ok := c[superType]; ok {
			return allowed
		}
	}
	if allowed, ok := c[Wildcard]; ok {
		return allowed
	}
	return false
}
