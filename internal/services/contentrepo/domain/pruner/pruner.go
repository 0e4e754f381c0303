// Package pruner reclaims content streams nothing points at anymore.
//
// Pruning happens in two separate steps. Prune removes unused streams from
// the read models only, which is cheap and can be undone by replaying the
// event log. PruneRemovedFromEventStream deletes the events of removed
// streams for good, skipping any stream another live stream was forked from.
package pruner

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/contentrepository/internal/platform/logging"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/engine"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

var (
	// ErrCommandHandlerRequired indicates a missing command handler.
	ErrCommandHandlerRequired = errors.New("command handler is required")
	// ErrStreamFinderRequired indicates a missing content stream finder.
	ErrStreamFinderRequired = errors.New("content stream finder is required")
	// ErrStreamDeleterRequired indicates a missing event store.
	ErrStreamDeleterRequired = errors.New("stream deleter is required")
)

// CommandHandler runs RemoveContentStream commands.
type CommandHandler interface {
	Handle(ctx context.Context, cmd command.Command) (engine.CommandResult, error)
}

// StreamFinder lists prunable streams.
type StreamFinder interface {
	FindUnusedContentStreams() []node.ContentStreamID
	FindUnusedAndRemovedContentStreams() []node.ContentStreamID
	Forget(id node.ContentStreamID)
}

// StreamDeleter deletes event streams.
type StreamDeleter interface {
	DeleteStream(ctx context.Context, stream event.StreamName) error
}

// Pruner removes unused content streams.
type Pruner struct {
	handler CommandHandler
	streams StreamFinder
	store   StreamDeleter
	logger  *logging.Logger
}

// New creates a pruner.
func New(handler CommandHandler, streams StreamFinder, store StreamDeleter, logger *logging.Logger) (*Pruner, error) {
	if handler == nil {
		return nil, ErrCommandHandlerRequired
	}
	if streams == nil {
		return nil, ErrStreamFinderRequired
	}
	if store == nil {
		return nil, ErrStreamDeleterRequired
	}
	return &Pruner{handler: handler, streams: streams, store: store, logger: logging.OrNop(logger).With("component", "pruner")}, nil
}

// ForRepository creates a pruner over the collaborators of repo.
func ForRepository(repo *engine.ContentRepository, logger *logging.Logger) (*Pruner, error) {
	if repo == nil {
		return nil, ErrCommandHandlerRequired
	}
	return New(repo, repo.ContentStreams(), repo.EventStore(), logger)
}

// Prune removes every unused content stream from the read models and returns
// the removed ids. The events stay in the event store.
func (p *Pruner) Prune(ctx context.Context) ([]node.ContentStreamID, error) {
	var removed []node.ContentStreamID
	for _, id := range p.streams.FindUnusedContentStreams() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if _, err := p.handler.Handle(ctx, command.RemoveContentStream{ContentStreamID: id}); err != nil {
			return removed, fmt.Errorf("remove content stream %s: %w", id, err)
		}
		p.logger.Info("content stream removed", "contentStreamId", id)
		removed = append(removed, id)
	}
	return removed, nil
}

// PruneRemovedFromEventStream deletes the events of removed streams that no
// live stream depends on and returns the deleted ids.
func (p *Pruner) PruneRemovedFromEventStream(ctx context.Context) ([]node.ContentStreamID, error) {
	var deleted []node.ContentStreamID
	for _, id := range p.streams.FindUnusedAndRemovedContentStreams() {
		if err := p.store.DeleteStream(ctx, event.ContentStreamStreamName(id)); err != nil {
			return deleted, fmt.Errorf("delete content stream %s: %w", id, err)
		}
		p.streams.Forget(id)
		p.logger.Info("content stream deleted from event store", "contentStreamId", id)
		deleted = append(deleted, id)
	}
	return deleted, nil
}
