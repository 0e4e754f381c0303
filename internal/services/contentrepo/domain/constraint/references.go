package constraint

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

// RequireNodeTypeToDeclareReference fails when nodeType has no reference
// named name.
func RequireNodeTypeToDeclareReference(nodeType *nodetype.NodeType, name node.ReferenceName) error {
	if !nodeType.HasReference(name) {
		return referenceError(apperrors.CodeReferenceNotDeclared,
			fmt.Sprintf("reference %s is not declared by %s", name, nodeType.Name()), nodeType.Name(), name, nil)
	}
	return nil
}

// NodeTypeAllowsNodesOfTypeInReference reports whether targets of
// targetType may be referenced. A reference without constraints accepts any
// target.
func NodeTypeAllowsNodesOfTypeInReference(nodeType *nodetype.NodeType, name node.ReferenceName, targetType *nodetype.NodeType) bool {
	definition, ok := nodeType.Reference(name)
	if !ok {
		return false
	}
	if len(definition.Constraints) == 0 {
		return true
	}
	return definition.Constraints.Allows(targetType)
}

// RequireNodeTypeToAllowNodesOfTypeInReference wraps
// NodeTypeAllowsNodesOfTypeInReference.
func RequireNodeTypeToAllowNodesOfTypeInReference(nodeType *nodetype.NodeType, name node.ReferenceName, targetType *nodetype.NodeType) error {
	if NodeTypeAllowsNodesOfTypeInReference(nodeType, name, targetType) {
		return nil
	}
	return referenceError(apperrors.CodeReferenceConstraintsNotMatched,
		fmt.Sprintf("reference %s of %s does not allow targets of type %s", name, nodeType.Name(), targetType.Name()),
		nodeType.Name(), name, nil)
}

// RequireReferencePropertiesToMatch checks the properties written on one
// reference edge against the reference declaration.
func RequireReferencePropertiesToMatch(nodeType *nodetype.NodeType, name node.ReferenceName, properties node.SerializedPropertyValues) error {
	definition, ok := nodeType.Reference(name)
	if !ok {
		return RequireNodeTypeToDeclareReference(nodeType, name)
	}
	for _, propertyName := range properties.Names() {
		declared, ok := definition.Properties[propertyName]
		if !ok {
			return referenceError(apperrors.CodeReferencePropertyNotDeclared,
				fmt.Sprintf("reference %s does not declare property %s", name, propertyName),
				nodeType.Name(), name, map[string]string{"PropertyName": string(propertyName)})
		}
		value := properties[propertyName]
		if value == nil {
			continue
		}
		if !nodetype.MatchesType(declared.Type, value.Value) {
			return referenceError(apperrors.CodeReferencePropertyTypeMismatch,
				fmt.Sprintf("reference property %s of %s does not match type %s", propertyName, name, declared.Type),
				nodeType.Name(), name, map[string]string{"PropertyName": string(propertyName), "PropertyType": declared.Type})
		}
	}
	return nil
}

// RequireReferencesToBeValid runs every reference check for writing refs
// named name from a node of sourceType. Targets must exist in cs.
func (c *Checker) RequireReferencesToBeValid(cs node.ContentStreamID, sourceType *nodetype.NodeType, name node.ReferenceName, refs node.NodeReferencesToWrite) error {
	if err := RequireNodeTypeToDeclareReference(sourceType, name); err != nil {
		return err
	}
	for _, ref := range refs {
		target, err := c.RequireProjectedNodeAggregate(cs, ref.TargetNodeAggregateID)
		if err != nil {
			return err
		}
		targetType, err := c.RequireNodeType(target.NodeTypeName)
		if err != nil {
			return err
		}
		if err := RequireNodeTypeToAllowNodesOfTypeInReference(sourceType, name, targetType); err != nil {
			return err
		}
		if err := RequireReferencePropertiesToMatch(sourceType, name, ref.Properties); err != nil {
			return err
		}
	}
	return nil
}

func referenceError(code apperrors.Code, message string, typeName node.NodeTypeName, name node.ReferenceName, extra map[string]string) error {
	metadata := map[string]string{"NodeTypeName": string(typeName), "ReferenceName": string(name)}
	for key, value := range extra {
		metadata[key] = value
	}
	return apperrors.WithMetadata(code, message, metadata)
}
