package contentstream

import (
	"fmt"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// Handler decides content stream commands against the finder.
type Handler struct {
	finder *Finder
}

// NewHandler creates a handler reading from finder.
func NewHandler(finder *Finder) *Handler {
	return &Handler{finder: finder}
}

// HandleCreate starts an empty content stream.
func (h *Handler) HandleCreate(cmd command.CreateContentStream) (eventstore.EventsToPublish, error) {
	if err := h.RequireToNotExist(cmd.ContentStreamID); err != nil {
		return eventstore.EventsToPublish{}, err
	}
	return eventstore.NewEventsToPublish(
		event.ContentStreamStreamName(cmd.ContentStreamID),
		eventstore.NoStream(),
		event.ContentStreamWasCreated{ContentStreamID: cmd.ContentStreamID},
	), nil
}

// HandleFork starts a content stream branching off the source's current
// version.
func (h *Handler) HandleFork(cmd command.ForkContentStream) (eventstore.EventsToPublish, error) {
	source, err := h.RequireToExist(cmd.SourceContentStreamID)
	if err != nil {
		return eventstore.EventsToPublish{}, err
	}
	if err := h.RequireToNotExist(cmd.NewContentStreamID); err != nil {
		return eventstore.EventsToPublish{}, err
	}
	return eventstore.NewEventsToPublish(
		event.ContentStreamStreamName(cmd.NewContentStreamID),
		eventstore.NoStream(),
		event.ContentStreamWasForked{
			NewContentStreamID:           cmd.NewContentStreamID,
			SourceContentStreamID:        cmd.SourceContentStreamID,
			VersionOfSourceContentStream: source.Version,
		},
	), nil
}

// HandleClose forbids further writes to a content stream.
func (h *Handler) HandleClose(cmd command.CloseContentStream) (eventstore.EventsToPublish, error) {
	state, err := h.RequireToBeOpen(cmd.ContentStreamID)
	if err != nil {
		return eventstore.EventsToPublish{}, err
	}
	return eventstore.NewEventsToPublish(
		event.ContentStreamStreamName(cmd.ContentStreamID),
		eventstore.Exactly(state.Version),
		event.ContentStreamWasClosed{ContentStreamID: cmd.ContentStreamID},
	), nil
}

// HandleRemove drops a content stream from the read models. Its events stay
// in the event store until pruned.
func (h *Handler) HandleRemove(cmd command.RemoveContentStream) (eventstore.EventsToPublish, error) {
	state, err := h.RequireToExist(cmd.ContentStreamID)
	if err != nil {
		return eventstore.EventsToPublish{}, err
	}
	return eventstore.NewEventsToPublish(
		event.ContentStreamStreamName(cmd.ContentStreamID),
		eventstore.Exactly(state.Version),
		event.ContentStreamWasRemoved{ContentStreamID: cmd.ContentStreamID},
	), nil
}

// RequireToExist returns the state of a live content stream or
// CONTENT_STREAM_DOES_NOT_EXIST_YET.
func (h *Handler) RequireToExist(id node.ContentStreamID) (State, error) {
	state, ok := h.finder.Find(id)
	if !ok || state.Removed {
		return State{}, apperrors.WithMetadata(apperrors.CodeContentStreamDoesNotExistYet,
			fmt.Sprintf("content stream %s does not exist yet", id),
			map[string]string{"ContentStreamID": string(id)})
	}
	return state, nil
}

// RequireToNotExist fails with CONTENT_STREAM_ALREADY_EXISTS for any known
// id, removed or not.
func (h *Handler) RequireToNotExist(id node.ContentStreamID) error {
	if _, ok := h.finder.Find(id); ok {
		return apperrors.WithMetadata(apperrors.CodeContentStreamAlreadyExists,
			fmt.Sprintf("content stream %s already exists", id),
			map[string]string{"ContentStreamID": string(id)})
	}
	return nil
}

// RequireToBeOpen returns the state of a live stream that accepts writes.
func (h *Handler) RequireToBeOpen(id node.ContentStreamID) (State, error) {
	state, err := h.RequireToExist(id)
	if err != nil {
		return State{}, err
	}
	if state.IsClosed() {
		return State{}, apperrors.WithMetadata(apperrors.CodeContentStreamIsClosed,
			fmt.Sprintf("content stream %s is closed", id),
			map[string]string{"ContentStreamID": string(id)})
	}
	return state, nil
}
