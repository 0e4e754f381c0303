package constraint

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// RequireProjectedNodeAggregate returns the aggregate id in cs.
func (c *Checker) RequireProjectedNodeAggregate(cs node.ContentStreamID, id node.NodeAggregateID) (*contentgraph.NodeAggregate, error) {
	agg, err := c.graph.FindNodeAggregateByID(cs, id)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, aggregateError(apperrors.CodeNodeAggregateCurrentlyDoesNotExist,
			fmt.Sprintf("node aggregate %s does not exist in content stream %s", id, cs), id, nil)
	}
	return agg, nil
}

// RequireProjectedNodeAggregateToNotExist fails when id is already taken in cs.
func (c *Checker) RequireProjectedNodeAggregateToNotExist(cs node.ContentStreamID, id node.NodeAggregateID) error {
	agg, err := c.graph.FindNodeAggregateByID(cs, id)
	if err != nil {
		return err
	}
	if agg != nil {
		return aggregateError(apperrors.CodeNodeAggregateCurrentlyExists,
			fmt.Sprintf("node aggregate %s already exists in content stream %s", id, cs), id, nil)
	}
	return nil
}

// RequireProjectedParentNodeAggregate returns the parent of the node of id
// authored in childOrigin.
func (c *Checker) RequireProjectedParentNodeAggregate(cs node.ContentStreamID, id node.NodeAggregateID, childOrigin dimension.OriginDimensionSpacePoint) (*contentgraph.NodeAggregate, error) {
	parent, err := c.graph.FindParentNodeAggregateByChildOriginDimensionSpacePoint(cs, id, childOrigin)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, aggregateError(apperrors.CodeNodeAggregateCurrentlyDoesNotExist,
			fmt.Sprintf("parent of node aggregate %s does not exist in %s", id, childOrigin.ToDimensionSpacePoint()), id,
			map[string]string{"DimensionSpacePoint": childOrigin.ToDimensionSpacePoint().String()})
	}
	return parent, nil
}

// RequireRootNodeTypeToBeUnoccupied fails when a root aggregate of typeName
// already exists in cs.
func (c *Checker) RequireRootNodeTypeToBeUnoccupied(cs node.ContentStreamID, typeName node.NodeTypeName) error {
	agg, err := c.graph.FindRootNodeAggregateByType(cs, typeName)
	if err != nil {
		return err
	}
	if agg != nil {
		return nodeTypeError(apperrors.CodeRootNodeAggregateTypeAlreadyExists,
			"a root node aggregate of type %s already exists", typeName)
	}
	return nil
}

// RequireNodeAggregateToNotBeRoot rejects root aggregates.
func RequireNodeAggregateToNotBeRoot(agg *contentgraph.NodeAggregate) error {
	if agg.IsRoot() {
		return aggregateError(apperrors.CodeNodeAggregateIsRoot,
			fmt.Sprintf("node aggregate %s is root", agg.NodeAggregateID), agg.NodeAggregateID, nil)
	}
	return nil
}

// RequireNodeAggregateToBeUntethered rejects tethered aggregates.
func RequireNodeAggregateToBeUntethered(agg *contentgraph.NodeAggregate) error {
	if agg.IsTethered() {
		return aggregateError(apperrors.CodeNodeAggregateIsTethered,
			fmt.Sprintf("node aggregate %s is tethered", agg.NodeAggregateID), agg.NodeAggregateID, nil)
	}
	return nil
}

// IsDescendant reports whether candidate is ancestor itself or lies below it
// in any dimension space point.
func (c *Checker) IsDescendant(cs node.ContentStreamID, ancestor, candidate node.NodeAggregateID) (bool, error) {
	visited := map[node.NodeAggregateID]bool{ancestor: true}
	worklist := []node.NodeAggregateID{ancestor}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]
		if current == candidate {
			return true, nil
		}
		children, err := c.graph.FindChildNodeAggregates(cs, current)
		if err != nil {
			return false, err
		}
		for _, child := range children {
			if visited[child.NodeAggregateID] {
				continue
			}
			visited[child.NodeAggregateID] = true
			worklist = append(worklist, child.NodeAggregateID)
		}
	}
	return false, nil
}

// RequireNodeAggregateToNotBeDescendant fails when candidate is ancestor or
// one of its descendants.
func (c *Checker) RequireNodeAggregateToNotBeDescendant(cs node.ContentStreamID, candidate, ancestor node.NodeAggregateID) error {
	descendant, err := c.IsDescendant(cs, ancestor, candidate)
	if err != nil {
		return err
	}
	if descendant {
		return aggregateError(apperrors.CodeNodeAggregateIsDescendant,
			fmt.Sprintf("node aggregate %s is a descendant of %s", candidate, ancestor), candidate,
			map[string]string{"AncestorNodeAggregateID": string(ancestor)})
	}
	return nil
}

// RequireNodeAggregateToCoverDimensionSpacePoint fails when agg is not visible
// in point.
func RequireNodeAggregateToCoverDimensionSpacePoint(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint) error {
	if !agg.CoversDimensionSpacePoint(point) {
		return pointError(apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPoint,
			"node aggregate %s does not cover %s", agg.NodeAggregateID, point)
	}
	return nil
}

// RequireNodeAggregateToCoverDimensionSpacePoints fails citing the points of
// set agg is not visible in.
func RequireNodeAggregateToCoverDimensionSpacePoints(agg *contentgraph.NodeAggregate, set dimension.DimensionSpacePointSet) error {
	missing := set.Difference(agg.CoveredDimensionSpacePoints())
	if missing.IsEmpty() {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeNodeAggregateDoesCurrentlyNotCoverPointSet,
		fmt.Sprintf("node aggregate %s does not cover %s", agg.NodeAggregateID, missing),
		map[string]string{"NodeAggregateID": string(agg.NodeAggregateID), "DimensionSpacePoints": pointsJSON(missing)})
}

// RequireNodeAggregateToOccupyDimensionSpacePoint fails when agg has no node
// in origin.
func RequireNodeAggregateToOccupyDimensionSpacePoint(agg *contentgraph.NodeAggregate, origin dimension.OriginDimensionSpacePoint) error {
	if !agg.OccupiesDimensionSpacePoint(origin) {
		return pointError(apperrors.CodeDimensionSpacePointIsNotYetOccupied,
			"node aggregate %s does not occupy %s", agg.NodeAggregateID, origin.ToDimensionSpacePoint())
	}
	return nil
}

// RequireNodeAggregateToNotOccupyDimensionSpacePoint fails when agg already
// has a node in origin.
func RequireNodeAggregateToNotOccupyDimensionSpacePoint(agg *contentgraph.NodeAggregate, origin dimension.OriginDimensionSpacePoint) error {
	if agg.OccupiesDimensionSpacePoint(origin) {
		return pointError(apperrors.CodeDimensionSpacePointIsAlreadyOccupied,
			"node aggregate %s already occupies %s", agg.NodeAggregateID, origin.ToDimensionSpacePoint())
	}
	return nil
}

// RequireNodeAggregateToNotDisableDimensionSpacePoint fails when agg is
// already disabled in point.
func RequireNodeAggregateToNotDisableDimensionSpacePoint(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint) error {
	if agg.DisablesDimensionSpacePoint(point) {
		return pointError(apperrors.CodeNodeAggregateCurrentlyDisablesPoint,
			"node aggregate %s already disables %s", agg.NodeAggregateID, point)
	}
	return nil
}

// RequireNodeAggregateToDisableDimensionSpacePoint fails when agg is not
// disabled in point.
func RequireNodeAggregateToDisableDimensionSpacePoint(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint) error {
	if !agg.DisablesDimensionSpacePoint(point) {
		return pointError(apperrors.CodeNodeAggregateCurrentlyDoesNotDisablePoint,
			"node aggregate %s does not disable %s", agg.NodeAggregateID, point)
	}
	return nil
}

// RequireSubtreeToNotBeTagged fails when tag is already set on agg in point.
func RequireSubtreeToNotBeTagged(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint, tag node.SubtreeTag) error {
	if agg.IsExplicitlyTagged(point, tag) {
		return tagError(apperrors.CodeSubtreeIsAlreadyTagged, "is already tagged", agg, point, tag)
	}
	return nil
}

// RequireSubtreeToBeTagged fails when tag is not set on agg in point.
func RequireSubtreeToBeTagged(agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint, tag node.SubtreeTag) error {
	if !agg.IsExplicitlyTagged(point, tag) {
		return tagError(apperrors.CodeSubtreeIsNotTagged, "is not tagged", agg, point, tag)
	}
	return nil
}

func aggregateError(code apperrors.Code, message string, id node.NodeAggregateID, extra map[string]string) error {
	metadata := map[string]string{"NodeAggregateID": string(id)}
	for key, value := range extra {
		metadata[key] = value
	}
	return apperrors.WithMetadata(code, message, metadata)
}

func pointError(code apperrors.Code, format string, id node.NodeAggregateID, point dimension.DimensionSpacePoint) error {
	return aggregateError(code, fmt.Sprintf(format, id, point), id,
		map[string]string{"DimensionSpacePoint": point.String()})
}

func tagError(code apperrors.Code, reason string, agg *contentgraph.NodeAggregate, point dimension.DimensionSpacePoint, tag node.SubtreeTag) error {
	return aggregateError(code,
		fmt.Sprintf("node aggregate %s %s %s in %s", agg.NodeAggregateID, reason, tag, point), agg.NodeAggregateID,
		map[string]string{"DimensionSpacePoint": point.String(), "Tag": string(tag)})
}
