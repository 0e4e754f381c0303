package constraint

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// NodeNameCoveredPoints returns the points of pointsToCover in which a child
// of parentID named name is already visible.
func (c *Checker) NodeNameCoveredPoints(cs node.ContentStreamID, parentID node.NodeAggregateID, name node.NodeName, pointsToCover dimension.DimensionSpacePointSet) (dimension.DimensionSpacePointSet, error) {
	children, err := c.graph.FindChildNodeAggregatesByName(cs, parentID, name)
	if err != nil {
		return dimension.DimensionSpacePointSet{}, err
	}
	covered := dimension.NewDimensionSpacePointSet()
	for _, child := range children {
		covered = covered.Union(child.CoveredDimensionSpacePoints().Intersect(pointsToCover))
	}
	return covered, nil
}

// RequireNodeNameToBeUncovered fails citing exactly the points of
// pointsToCover that already show a sibling named name. Unnamed nodes never
// collide.
func (c *Checker) RequireNodeNameToBeUncovered(cs node.ContentStreamID, name node.NodeName, parentID node.NodeAggregateID, pointsToCover dimension.DimensionSpacePointSet) error {
	if name.IsEmpty() {
		return nil
	}
	covered, err := c.NodeNameCoveredPoints(cs, parentID, name, pointsToCover)
	if err != nil {
		return err
	}
	if covered.IsEmpty() {
		return nil
	}
	return nameError(apperrors.CodeNodeNameIsAlreadyCovered, "covered", name, parentID, covered)
}

// RequireNodeNameToBeUnoccupied fails when a sibling named name already has
// a node authored in one of pointsToCheck below parentID in parentOrigin.
func (c *Checker) RequireNodeNameToBeUnoccupied(cs node.ContentStreamID, name node.NodeName, parentID node.NodeAggregateID, parentOrigin dimension.OriginDimensionSpacePoint, pointsToCheck dimension.DimensionSpacePointSet) error {
	if name.IsEmpty() {
		return nil
	}
	occupied, err := c.graph.GetDimensionSpacePointsOccupiedByChildNodeName(cs, name, parentID, parentOrigin, pointsToCheck)
	if err != nil {
		return err
	}
	if occupied.IsEmpty() {
		return nil
	}
	return nameError(apperrors.CodeNodeNameIsAlreadyOccupied, "occupied", name, parentID, occupied)
}

func nameError(code apperrors.Code, verb string, name node.NodeName, parentID node.NodeAggregateID, points dimension.DimensionSpacePointSet) error {
	return apperrors.WithMetadata(code,
		fmt.Sprintf("node name %s below %s is already %s in %s", name, parentID, verb, points),
		map[string]string{
			"NodeName":             string(name),
			"NodeAggregateID":      string(parentID),
			"DimensionSpacePoints": pointsJSON(points),
		})
}
