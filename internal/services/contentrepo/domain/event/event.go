// Package event defines the closed set of content repository events, their
// JSON envelope and the stream names they are recorded in.
package event

import (
	"encoding/json"
	"strings"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Type identifies an event variant on the wire.
type Type string

// Event is an immutable fact.
type Event interface {
	EventType() Type
}

// ContentStreamEvent is recorded in exactly one content stream.
type ContentStreamEvent interface {
	Event
	StreamID() node.ContentStreamID
}

// RebasableEvent can be re-emitted onto another content stream.
type RebasableEvent interface {
	ContentStreamEvent
	CopyForContentStream(node.ContentStreamID) Event
}

// NodeAggregateEvent concerns one node aggregate.
type NodeAggregateEvent interface {
	ContentStreamEvent
	AggregateID() node.NodeAggregateID
}

// Metadata travels with the first event of a committed batch.
type Metadata struct {
	CommandType    string          `json:"commandType,omitempty"`
	CommandPayload json.RawMessage `json:"commandPayload,omitempty"`
	// InitiatingUserID names the user on whose behalf the batch was
	// committed.
	InitiatingUserID string `json:"initiatingUserId,omitempty"`
}

// IsZero reports whether no command is attached.
func (m Metadata) IsZero() bool {
	return m.CommandType == "" && len(m.CommandPayload) == 0
}

// StreamName names an event stream.
type StreamName string

const (
	contentStreamPrefix = "ContentStream:"
	workspacePrefix     = "Workspace:"

	// AllStreams is the virtual stream of every event in commit order.
	AllStreams StreamName = "$all"
)

// ContentStreamStreamName returns the stream of a content stream.
func ContentStreamStreamName(id node.ContentStreamID) StreamName {
	return StreamName(contentStreamPrefix + string(id))
}

// WorkspaceStreamName returns the stream of a workspace.
func WorkspaceStreamName(name node.WorkspaceName) StreamName {
	return StreamName(workspacePrefix + string(name))
}

// ContentStreamID extracts the content stream id of a content stream name.
func (s StreamName) ContentStreamID() (node.ContentStreamID, bool) {
	if !strings.HasPrefix(string(s), contentStreamPrefix) {
		return "", false
	}
	return node.ContentStreamID(strings.TrimPrefix(string(s), contentStreamPrefix)), true
}

// WorkspaceName extracts the workspace name of a workspace stream name.
func (s StreamName) WorkspaceName() (node.WorkspaceName, bool) {
	if !strings.HasPrefix(string(s), workspacePrefix) {
		return "", false
	}
	return node.WorkspaceName(strings.TrimPrefix(string(s), workspacePrefix)), true
}

// CommandConflict records a command that could not be re-applied during a
// rebase, publish or discard.
type CommandConflict struct {
	CommandIndex    int                  `json:"commandIndex"`
	CommandType     string               `json:"commandType"`
	NodeAggregateID node.NodeAggregateID `json:"nodeAggregateId,omitempty"`
	ErrorCode       string               `json:"errorCode"`
	ErrorMessage    string               `json:"errorMessage"`
}
