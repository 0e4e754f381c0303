package constraint

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

// RequireNodeType resolves name or fails with NODE_TYPE_NOT_FOUND.
func (c *Checker) RequireNodeType(name node.NodeTypeName) (*nodetype.NodeType, error) {
	return c.nodeTypes.GetNodeType(name)
}

// RequireNodeTypeToNotBeAbstract rejects abstract types.
func (c *Checker) RequireNodeTypeToNotBeAbstract(nodeType *nodetype.NodeType) error {
	if nodeType.IsAbstract() {
		return nodeTypeError(apperrors.CodeNodeTypeIsAbstract, "node type %s is abstract", nodeType.Name())
	}
	return nil
}

// RequireNodeTypeToBeOfTypeRoot rejects non-root types.
func (c *Checker) RequireNodeTypeToBeOfTypeRoot(nodeType *nodetype.NodeType) error {
	if !nodeType.IsRoot() {
		return nodeTypeError(apperrors.CodeNodeTypeIsNotOfTypeRoot, "node type %s is not of type root", nodeType.Name())
	}
	return nil
}

// RequireNodeTypeToNotBeOfTypeRoot rejects the root type.
func (c *Checker) RequireNodeTypeToNotBeOfTypeRoot(nodeType *nodetype.NodeType) error {
	if nodeType.IsRoot() {
		return nodeTypeError(apperrors.CodeNodeTypeIsOfTypeRoot, "node type %s is of type root", nodeType.Name())
	}
	return nil
}

// AreNodeTypeConstraintsImposedByParentValid reports whether a node of
// nodeType named nodeName may be a child of a node of parentType. A name the
// parent reserves for a tethered child requires exactly the tethered type.
func AreNodeTypeConstraintsImposedByParentValid(parentType *nodetype.NodeType, nodeName node.NodeName, nodeType *nodetype.NodeType) bool {
	if !nodeName.IsEmpty() && parentType.HasTetheredNode(nodeName) {
		tetheredType, _ := parentType.TypeOfTetheredNode(nodeName)
		if tetheredType != nodeType.Name() {
			return false
		}
	}
	return parentType.AllowsChildNodeType(nodeType)
}

// RequireNodeTypeConstraintsImposedByParentToBeMet wraps
// AreNodeTypeConstraintsImposedByParentValid.
func RequireNodeTypeConstraintsImposedByParentToBeMet(parentType *nodetype.NodeType, nodeName node.NodeName, nodeType *nodetype.NodeType) error {
	if AreNodeTypeConstraintsImposedByParentValid(parentType, nodeName, nodeType) {
		return nil
	}
	return constraintViolation(fmt.Sprintf("node type %s is not allowed for child node %q of %s",
		nodeType.Name(), nodeName, parentType.Name()))
}

// AreNodeTypeConstraintsImposedByGrandparentValid reports whether a node of
// nodeType may be placed below the tethered child parentNodeName of a node of
// grandparentType. Parents that are not tethered slots impose nothing.
func AreNodeTypeConstraintsImposedByGrandparentValid(grandparentType *nodetype.NodeType, parentNodeName node.NodeName, nodeType *nodetype.NodeType) bool {
	if parentNodeName.IsEmpty() || !grandparentType.HasTetheredNode(parentNodeName) {
		return true
	}
	return grandparentType.AllowsGrandchildNodeType(parentNodeName, nodeType)
}

// RequireNodeTypeConstraintsImposedByGrandparentToBeMet wraps
// AreNodeTypeConstraintsImposedByGrandparentValid.
func RequireNodeTypeConstraintsImposedByGrandparentToBeMet(grandparentType *nodetype.NodeType, parentNodeName node.NodeName, nodeType *nodetype.NodeType) error {
	if AreNodeTypeConstraintsImposedByGrandparentValid(grandparentType, parentNodeName, nodeType) {
		return nil
	}
	return constraintViolation(fmt.Sprintf("node type %s is not allowed below tethered node %q of %s",
		nodeType.Name(), parentNodeName, grandparentType.Name()))
}

// RequireConstraintsImposedByAncestorsToBeMet checks nodeType named nodeName
// against every parent in parentIDs and, for tethered parents, against the
// parents of those.
func (c *Checker) RequireConstraintsImposedByAncestorsToBeMet(cs node.ContentStreamID, nodeType *nodetype.NodeType, nodeName node.NodeName, parentIDs []node.NodeAggregateID) error {
	for _, parentID := range parentIDs {
		parent, err := c.RequireProjectedNodeAggregate(cs, parentID)
		if err != nil {
			return err
		}
		parentType, err := c.RequireNodeType(parent.NodeTypeName)
		switch {
		case apperrors.IsCode(err, apperrors.CodeNodeTypeNotFound):
			// Parents of undeclared types impose no constraints.
		case err != nil:
			return err
		default:
			if err := RequireNodeTypeConstraintsImposedByParentToBeMet(parentType, nodeName, nodeType); err != nil {
				return err
			}
		}
		grandparents, err := c.graph.FindParentNodeAggregates(cs, parentID)
		if err != nil {
			return err
		}
		for _, grandparent := range grandparents {
			grandparentType, err := c.RequireNodeType(grandparent.NodeTypeName)
			if apperrors.IsCode(err, apperrors.CodeNodeTypeNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := RequireNodeTypeConstraintsImposedByGrandparentToBeMet(grandparentType, parent.NodeName, nodeType); err != nil {
				return err
			}
		}
	}
	return nil
}

// RequireNodeTypeToDeclareProperties fails for undeclared properties,
// references written as properties and values of the wrong type. Unset
// values are always accepted for declared properties.
func (c *Checker) RequireNodeTypeToDeclareProperties(nodeType *nodetype.NodeType, values node.SerializedPropertyValues) error {
	for _, name := range values.Names() {
		if !nodeType.HasProperty(name) {
			return propertyError(nodeType, name, "is not declared")
		}
		value := values[name]
		if value == nil {
			continue
		}
		if !nodetype.MatchesType(nodeType.PropertyType(name), value.Value) {
			return propertyError(nodeType, name, "does not match type "+nodeType.PropertyType(name))
		}
	}
	return nil
}

func propertyError(nodeType *nodetype.NodeType, name node.PropertyName, reason string) error {
	return apperrors.WithMetadata(apperrors.CodePropertyCannotBeSet,
		fmt.Sprintf("property %s of %s %s", name, nodeType.Name(), reason),
		map[string]string{"PropertyName": string(name), "NodeTypeName": string(nodeType.Name())})
}

func nodeTypeError(code apperrors.Code, format string, name node.NodeTypeName) error {
	return apperrors.WithMetadata(code, fmt.Sprintf(format, name), map[string]string{"NodeTypeName": string(name)})
}

func constraintViolation(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeNodeConstraintViolation, reason, map[string]string{"Reason": reason})
}

// RequireTetheredDescendantNodeTypesToExist resolves every tethered
// descendant type of nodeType, walking the declarations breadth first.
func (c *Checker) RequireTetheredDescendantNodeTypesToExist(nodeType *nodetype.NodeType) error {
	return c.walkTetheredTypes(nodeType, func(*nodetype.NodeType) error { return nil })
}

// RequireTetheredDescendantNodeTypesToNotBeOfTypeRoot rejects schemas that
// would auto-create a root node below nodeType.
func (c *Checker) RequireTetheredDescendantNodeTypesToNotBeOfTypeRoot(nodeType *nodetype.NodeType) error {
	return c.walkTetheredTypes(nodeType, c.RequireNodeTypeToNotBeOfTypeRoot)
}

func (c *Checker) walkTetheredTypes(nodeType *nodetype.NodeType, visit func(*nodetype.NodeType) error) error {
	visited := map[node.NodeTypeName]bool{nodeType.Name(): true}
	worklist := []*nodetype.NodeType{nodeType}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]
		for _, tethered := range current.TetheredNodes() {
			if visited[tethered.Type] {
				continue
			}
			visited[tethered.Type] = true
			tetheredType, err := c.RequireNodeType(tethered.Type)
			if err != nil {
				return err
			}
			if err := visit(tetheredType); err != nil {
				return err
			}
			worklist = append(worklist, tetheredType)
		}
	}
	return nil
}
