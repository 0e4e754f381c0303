package contentstream

import (
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Status is the lifecycle phase of a content stream.
type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusForked           Status = "FORKED"
	StatusInUseByWorkspace Status = "IN_USE_BY_WORKSPACE"
	StatusRebasing         Status = "REBASING"
	StatusRebaseError      Status = "REBASE_ERROR"
	StatusClosed           Status = "CLOSED"
	StatusNoLongerInUse    Status = "NO_LONGER_IN_USE"
)

// State captures the replayed state of one content stream.
type State struct {
	ID node.ContentStreamID
	// SourceID is empty for streams that were created rather than forked.
	SourceID      node.ContentStreamID
	SourceVersion int64
	Status        Status
	// Removed is set once the stream was dropped from the read models.
	Removed bool
	// Version is the version of the last event on the stream.
	Version int64
}

// IsClosed reports whether writes are rejected.
func (s State) IsClosed() bool { return s.Status == StatusClosed }

// IsUnused reports whether nothing points at the stream anymore.
func (s State) IsUnused() bool {
	return !s.Removed && (s.Status == StatusNoLongerInUse || s.Status == StatusRebaseError)
}

// fold applies evt to the streams it touches and returns them.
func fold(lookup func(node.ContentStreamID) State, evt event.Event) []State {
	switch e := evt.(type) {
	case event.ContentStreamWasCreated:
		return []State{{ID: e.ContentStreamID, Status: StatusCreated, Version: eventstore.NoVersion}}
	case event.ContentStreamWasForked:
		return []State{{
			ID:            e.NewContentStreamID,
			SourceID:      e.SourceContentStreamID,
			SourceVersion: e.VersionOfSourceContentStream,
			Status:        StatusForked,
			Version:       eventstore.NoVersion,
		}}
	case event.ContentStreamWasClosed:
		state := lookup(e.ContentStreamID)
		state.Status = StatusClosed
		return []State{state}
	case event.ContentStreamWasRemoved:
		state := lookup(e.ContentStreamID)
		state.Removed = true
		return []State{state}
	case event.RootWorkspaceWasCreated:
		return []State{withStatus(lookup(e.NewContentStreamID), StatusInUseByWorkspace)}
	case event.WorkspaceWasCreated:
		return []State{withStatus(lookup(e.NewContentStreamID), StatusInUseByWorkspace)}
	case event.WorkspaceWasRebased:
		return switched(lookup, e.NewContentStreamID, e.PreviousContentStreamID)
	case event.WorkspaceRebaseFailed:
		return []State{withStatus(lookup(e.CandidateContentStreamID), StatusRebaseError)}
	case event.WorkspaceWasPublished:
		return switched(lookup, e.NewSourceContentStreamID, e.PreviousSourceContentStreamID)
	case event.WorkspaceWasPartiallyPublished:
		return switched(lookup, e.NewSourceContentStreamID, e.PreviousSourceContentStreamID)
	case event.WorkspaceWasDiscarded:
		return switched(lookup, e.NewContentStreamID, e.PreviousContentStreamID)
	case event.WorkspaceWasPartiallyDiscarded:
		return switched(lookup, e.NewContentStreamID, e.PreviousContentStreamID)
	}
	return nil
}

func withStatus(state State, status Status) State {
	if state.ID == "" {
		return state
	}
	state.Status = status
	return state
}

func switched(lookup func(node.ContentStreamID) State, next, previous node.ContentStreamID) []State {
	out := []State{withStatus(lookup(next), StatusInUseByWorkspace)}
	if previous != "" && previous != next {
		out = append(out, withStatus(lookup(previous), StatusNoLongerInUse))
	}
	return out
}
