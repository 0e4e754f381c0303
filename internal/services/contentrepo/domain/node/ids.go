// Package node defines the value objects shared by commands, events and read
// models of the content repository.
package node

import (
	"strings"

	"github.com/louisbranch/contentrepository/internal/platform/id"
)

// ContentStreamID identifies a content stream.
type ContentStreamID string

// NodeAggregateID identifies a node aggregate within a content stream.
type NodeAggregateID string

// WorkspaceName identifies a workspace.
type WorkspaceName string

// NodeName is the optional name of a node below its parent.
type NodeName string

// NodeTypeName identifies a node type in the schema.
type NodeTypeName string

// PropertyName identifies a property declared by a node type.
type PropertyName string

// ReferenceName identifies a reference property declared by a node type.
type ReferenceName string

// NewContentStreamID returns a random content stream id.
func NewContentStreamID() ContentStreamID {
	return ContentStreamID(id.MustNewID())
}

// NewNodeAggregateID returns a random node aggregate id.
func NewNodeAggregateID() NodeAggregateID {
	return NodeAggregateID(id.MustNewID())
}

// IsEmpty reports whether the id is blank.
func (i ContentStreamID) IsEmpty() bool { return strings.TrimSpace(string(i)) == "" }

// IsEmpty reports whether the id is blank.
func (i NodeAggregateID) IsEmpty() bool { return strings.TrimSpace(string(i)) == "" }

// IsEmpty reports whether the name is blank.
func (n WorkspaceName) IsEmpty() bool { return strings.TrimSpace(string(n)) == "" }

// IsEmpty reports whether the name is blank.
func (n NodeName) IsEmpty() bool { return strings.TrimSpace(string(n)) == "" }

// LiveWorkspaceName is the conventional name of the root workspace.
const LiveWorkspaceName WorkspaceName = "live"
