// Package constraint holds the checks every node command passes before any
// event is produced.
//
// Each check is a boolean predicate with a Require wrapper that turns a false
// result into a typed error, so the two can never disagree. Checks only read
// the content graph, the node type schema and the dimension subspace; a
// failed check leaves nothing to roll back.
package constraint

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentstream"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

// NodeTypes resolves node types by name.
type NodeTypes interface {
	GetNodeType(name node.NodeTypeName) (*nodetype.NodeType, error)
}

// Subspace tells which dimension space points are allowed.
type Subspace interface {
	Contains(point dimension.DimensionSpacePoint) bool
}

// Streams resolves content stream states.
type Streams interface {
	Find(id node.ContentStreamID) (contentstream.State, bool)
}

// Checker runs constraint checks against its read handles.
type Checker struct {
	graph     contentgraph.ContentGraph
	nodeTypes NodeTypes
	subspace  Subspace
	streams   Streams
}

// NewChecker creates a checker.
func NewChecker(graph contentgraph.ContentGraph, nodeTypes NodeTypes, subspace Subspace, streams Streams) *Checker {
	return &Checker{graph: graph, nodeTypes: nodeTypes, subspace: subspace, streams: streams}
}

// ContentStreamExists reports whether id has events and was not removed.
func (c *Checker) ContentStreamExists(id node.ContentStreamID) bool {
	state, ok := c.streams.Find(id)
	return ok && !state.Removed
}

// RequireContentStreamToExist returns the state of id.
func (c *Checker) RequireContentStreamToExist(id node.ContentStreamID) (contentstream.State, error) {
	if !c.ContentStreamExists(id) {
		return contentstream.State{}, apperrors.WithMetadata(apperrors.CodeContentStreamDoesNotExistYet,
			fmt.Sprintf("content stream %s does not exist yet", id),
			map[string]string{"ContentStreamID": string(id)})
	}
	state, _ := c.streams.Find(id)
	return state, nil
}

// RequireContentStreamToBeOpen returns the state of an existing stream that
// still accepts writes.
func (c *Checker) RequireContentStreamToBeOpen(id node.ContentStreamID) (contentstream.State, error) {
	state, err := c.RequireContentStreamToExist(id)
	if err != nil {
		return contentstream.State{}, err
	}
	if state.IsClosed() {
		return contentstream.State{}, apperrors.WithMetadata(apperrors.CodeContentStreamIsClosed,
			fmt.Sprintf("content stream %s is closed", id),
			map[string]string{"ContentStreamID": string(id)})
	}
	return state, nil
}

// DimensionSpacePointExists reports whether point is in the allowed subspace.
func (c *Checker) DimensionSpacePointExists(point dimension.DimensionSpacePoint) bool {
	return c.subspace.Contains(point)
}

// RequireDimensionSpacePointToExist fails for points outside the subspace.
func (c *Checker) RequireDimensionSpacePointToExist(point dimension.DimensionSpacePoint) error {
	if !c.DimensionSpacePointExists(point) {
		return apperrors.WithMetadata(apperrors.CodeDimensionSpacePointNotFound,
			fmt.Sprintf("dimension space point %s is not allowed", point),
			map[string]string{"DimensionSpacePoint": point.String()})
	}
	return nil
}

// RequireDimensionSpacePointSetToExist checks every point of set.
func (c *Checker) RequireDimensionSpacePointSetToExist(set dimension.DimensionSpacePointSet) error {
	for _, point := range set.Points() {
		if err := c.RequireDimensionSpacePointToExist(point); err != nil {
			return err
		}
	}
	return nil
}

func pointsJSON(set dimension.DimensionSpacePointSet) string {
	data, err := json.Marshal(set)
	if err != nil {
		return set.String()
	}
	return string(data)
}
