package workspace

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Status tells whether a workspace has seen every change of its base.
type Status string

const (
	StatusUpToDate         Status = "UP_TO_DATE"
	StatusOutdated         Status = "OUTDATED"
	StatusOutdatedConflict Status = "OUTDATED_CONFLICT"
)

// Workspace is a named pointer to its current content stream.
type Workspace struct {
	Name            node.WorkspaceName
	BaseName        node.WorkspaceName
	Title           string
	ContentStreamID node.ContentStreamID
	Status          Status
	// Version is the version of the last event on the workspace stream.
	Version int64
	// Conflicted is set by a failed rebase until the workspace switches streams.
	Conflicted bool
}

// IsRoot reports whether the workspace has no base.
func (w Workspace) IsRoot() bool { return w.BaseName == "" }

// Fold applies a workspace event to state.
func Fold(state Workspace, evt event.Event) Workspace {
	switch e := evt.(type) {
	case event.RootWorkspaceWasCreated:
		state.Name = e.WorkspaceName
		state.Title = e.WorkspaceTitle
		state.ContentStreamID = e.NewContentStreamID
	case event.WorkspaceWasCreated:
		state.Name = e.WorkspaceName
		state.BaseName = e.BaseWorkspaceName
		state.Title = e.WorkspaceTitle
		state.ContentStreamID = e.NewContentStreamID
	case event.WorkspaceWasRebased:
		state.ContentStreamID = e.NewContentStreamID
		state.Conflicted = false
	case event.WorkspaceRebaseFailed:
		state.Conflicted = true
	case event.WorkspaceWasPublished:
		state.ContentStreamID = e.NewSourceContentStreamID
		state.Conflicted = false
	case event.WorkspaceWasPartiallyPublished:
		state.ContentStreamID = e.NewSourceContentStreamID
		state.Conflicted = false
	case event.WorkspaceWasDiscarded:
		state.ContentStreamID = e.NewContentStreamID
		state.Conflicted = false
	case event.WorkspaceWasPartiallyDiscarded:
		state.ContentStreamID = e.NewContentStreamID
		state.Conflicted = false
	}
	return state
}

// workspaceName returns the workspace a workspace event belongs to.
func workspaceName(evt event.Event) (node.WorkspaceName, bool) {
	switch e := evt.(type) {
	case event.RootWorkspaceWasCreated:
		return e.WorkspaceName, true
	case event.WorkspaceWasCreated:
		return e.WorkspaceName, true
	case event.WorkspaceWasRebased:
		return e.WorkspaceName, true
	case event.WorkspaceRebaseFailed:
		return e.WorkspaceName, true
	case event.WorkspaceWasPublished:
		return e.SourceWorkspaceName, true
	case event.WorkspaceWasPartiallyPublished:
		return e.SourceWorkspaceName, true
	case event.WorkspaceWasDiscarded:
		return e.WorkspaceName, true
	case event.WorkspaceWasPartiallyDiscarded:
		return e.WorkspaceName, true
	}
	return "", false
}
