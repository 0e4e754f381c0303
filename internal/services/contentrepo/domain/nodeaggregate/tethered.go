package nodeaggregate

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

// tetheredNode is one auto-created descendant, listed parents first.
type tetheredNode struct {
	id         node.NodeAggregateID
	parentID   node.NodeAggregateID
	typeName   node.NodeTypeName
	name       node.NodeName
	properties node.SerializedPropertyValues
}

type tetheredItem struct {
	parentID node.NodeAggregateID
	nodeType *nodetype.NodeType
	path     node.NodePath
	chain    map[node.NodeTypeName]bool
}

// tetheredPaths lists the paths of every tethered descendant of nodeType.
func (h *Handler) tetheredPaths(nodeType *nodetype.NodeType, include func(node.NodeName) bool) ([]node.NodePath, error) {
	var paths []node.NodePath
	err := h.walkTethered("", nodeType, include, func(path node.NodePath, _ node.NodeAggregateID, _ nodetype.TetheredNodeDefinition, _ *nodetype.NodeType) node.NodeAggregateID {
		paths = append(paths, path)
		return ""
	})
	return paths, err
}

// planTethered assigns ids from ids to the tethered descendants of a node of
// nodeType with id parentID. include filters the direct children.
func (h *Handler) planTethered(parentID node.NodeAggregateID, nodeType *nodetype.NodeType, ids node.NodeAggregateIDsByNodePaths, include func(node.NodeName) bool) ([]tetheredNode, error) {
	var plan []tetheredNode
	err := h.walkTethered(parentID, nodeType, include, func(path node.NodePath, parent node.NodeAggregateID, definition nodetype.TetheredNodeDefinition, childType *nodetype.NodeType) node.NodeAggregateID {
		id, _ := ids.Get(path)
		plan = append(plan, tetheredNode{
			id:         id,
			parentID:   parent,
			typeName:   definition.Type,
			name:       definition.Name,
			properties: childType.DefaultValues(),
		})
		return id
	})
	return plan, err
}

// walkTethered visits the tethered declarations below nodeType breadth
// first. A type that tethers itself, directly or further down, is rejected.
func (h *Handler) walkTethered(parentID node.NodeAggregateID, nodeType *nodetype.NodeType, include func(node.NodeName) bool, visit func(node.NodePath, node.NodeAggregateID, nodetype.TetheredNodeDefinition, *nodetype.NodeType) node.NodeAggregateID) error {
	worklist := []tetheredItem{{parentID: parentID, nodeType: nodeType, chain: map[node.NodeTypeName]bool{nodeType.Name(): true}}}
	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]
		for _, definition := range item.nodeType.TetheredNodes() {
			if item.path == "" && include != nil && !include(definition.Name) {
				continue
			}
			if item.chain[definition.Type] {
				return apperrors.WithMetadata(apperrors.CodeInvalidNodeTypeConfiguration,
					fmt.Sprintf("node type %s tethers itself below %q", definition.Type, item.path.Append(definition.Name)),
					map[string]string{"Reason": fmt.Sprintf("node type %s tethers itself", definition.Type)})
			}
			childType, err := h.checker.RequireNodeType(definition.Type)
			if err != nil {
				return err
			}
			path := item.path.Append(definition.Name)
			id := visit(path, item.parentID, definition, childType)
			chain := make(map[node.NodeTypeName]bool, len(item.chain)+1)
			for name := range item.chain {
				chain[name] = true
			}
			chain[definition.Type] = true
			worklist = append(worklist, tetheredItem{parentID: id, nodeType: childType, path: path, chain: chain})
		}
	}
	return nil
}

// completeTetheredIDs fills in ids for every tethered path of nodeType and
// checks that none of them is taken.
func (h *Handler) completeTetheredIDs(cs node.ContentStreamID, nodeType *nodetype.NodeType, ids node.NodeAggregateIDsByNodePaths, include func(node.NodeName) bool) (node.NodeAggregateIDsByNodePaths, error) {
	paths, err := h.tetheredPaths(nodeType, include)
	if err != nil {
		return nil, err
	}
	completed := ids.CompleteForPaths(paths, h.newID)
	for _, path := range paths {
		id, _ := completed.Get(path)
		if err := h.checker.RequireProjectedNodeAggregateToNotExist(cs, id); err != nil {
			return nil, err
		}
	}
	if len(completed) == 0 {
		return nil, nil
	}
	return completed, nil
}

func tetheredCreationEvents(cs node.ContentStreamID, plan []tetheredNode, origin dimension.OriginDimensionSpacePoint, covered dimension.DimensionSpacePointSet) []event.Event {
	events := make([]event.Event, 0, len(plan))
	for _, n := range plan {
		events = append(events, event.NodeAggregateWithNodeWasCreated{
			ContentStreamID:             cs,
			NodeAggregateID:             n.id,
			NodeTypeName:                n.typeName,
			OriginDimensionSpacePoint:   origin,
			CoveredDimensionSpacePoints: covered,
			ParentNodeAggregateID:       n.parentID,
			NodeName:                    n.name,
			InitialPropertyValues:       n.properties,
			NodeAggregateClassification: node.ClassificationTethered,
		})
	}
	return events
}

func tetheredVariantEvents(cs node.ContentStreamID, plan []tetheredNode, relation dimension.Relation, source, target dimension.OriginDimensionSpacePoint, coverage dimension.DimensionSpacePointSet) []event.Event {
	events := make([]event.Event, 0, len(plan))
	for _, n := range plan {
		events = append(events, variantEvent(cs, n.id, relation, source, target, coverage))
	}
	return events
}

func variantEvent(cs node.ContentStreamID, id node.NodeAggregateID, relation dimension.Relation, source, target dimension.OriginDimensionSpacePoint, coverage dimension.DimensionSpacePointSet) event.Event {
	switch relation {
	case dimension.RelationSpecialization:
		return event.NodeSpecializationVariantWasCreated{
			ContentStreamID:        cs,
			NodeAggregateID:        id,
			SourceOrigin:           source,
			SpecializationOrigin:   target,
			SpecializationCoverage: coverage,
		}
	case dimension.RelationGeneralization:
		return event.NodeGeneralizationVariantWasCreated{
			ContentStreamID:        cs,
			NodeAggregateID:        id,
			SourceOrigin:           source,
			GeneralizationOrigin:   target,
			GeneralizationCoverage: coverage,
		}
	default:
		return event.NodePeerVariantWasCreated{
			ContentStreamID: cs,
			NodeAggregateID: id,
			SourceOrigin:    source,
			PeerOrigin:      target,
			PeerCoverage:    coverage,
		}
	}
}
