package workspace

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrCommandBusRequired indicates a missing command bus.
	ErrCommandBusRequired = errors.New("command bus is required")
)

// CommandBus runs the steps of a workspace operation. Every call is its own
// atomic append followed by projection catch-up.
type CommandBus interface {
	Dispatch(ctx context.Context, cmd command.Command) error
	Publish(ctx context.Context, batch eventstore.EventsToPublish) error
}

// Outcome is the result of a workspace command: the final workspace event and
// the commands that could not be re-applied. Failed reports an aborted
// operation; Events may still carry the event recording the failure.
type Outcome struct {
	Events    eventstore.EventsToPublish
	Conflicts []event.CommandConflict
	Failed    bool
}

// Handler decides workspace commands.
type Handler struct {
	workspaces *Finder
	streams    StreamFinder
	store      eventstore.Store
	newID      func() node.ContentStreamID
}

// NewHandler creates a workspace handler. Recorded commands are read from
// store.
func NewHandler(workspaces *Finder, streams StreamFinder, store eventstore.Store) *Handler {
	return &Handler{workspaces: workspaces, streams: streams, store: store, newID: node.NewContentStreamID}
}

// Handle runs one workspace command.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, bus CommandBus) (Outcome, error) {
	if h.store == nil {
		return Outcome{}, ErrEventStoreRequired
	}
	if bus == nil {
		return Outcome{}, ErrCommandBusRequired
	}
	switch c := cmd.(type) {
	case command.CreateRootWorkspace:
		return h.handleCreateRoot(ctx, c, bus)
	case command.CreateWorkspace:
		return h.handleCreate(ctx, c, bus)
	case command.RebaseWorkspace:
		return h.handleRebase(ctx, c, bus)
	case command.PublishWorkspace:
		return h.handlePublish(ctx, c, bus)
	case command.PublishIndividualNodesFromWorkspace:
		return h.handlePublishIndividualNodes(ctx, c, bus)
	case command.DiscardWorkspace:
		return h.handleDiscard(ctx, c, bus)
	case command.DiscardIndividualNodesFromWorkspace:
		return h.handleDiscardIndividualNodes(ctx, c, bus)
	default:
		return Outcome{}, apperrors.WithMetadata(apperrors.CodeUnknownCommand,
			fmt.Sprintf("%s is not a workspace command", cmd.CommandType()),
			map[string]string{"CommandType": string(cmd.CommandType())})
	}
}

func (h *Handler) handleCreateRoot(ctx context.Context, cmd command.CreateRootWorkspace, bus CommandBus) (Outcome, error) {
	if err := h.requireToNotExist(cmd.WorkspaceName); err != nil {
		return Outcome{}, err
	}
	streamID := h.idOrNew(cmd.NewContentStreamID)
	if err := bus.Dispatch(ctx, command.CreateContentStream{ContentStreamID: streamID}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Events: eventstore.NewEventsToPublish(
		event.WorkspaceStreamName(cmd.WorkspaceName),
		eventstore.NoStream(),
		event.RootWorkspaceWasCreated{
			WorkspaceName:      cmd.WorkspaceName,
			WorkspaceTitle:     cmd.WorkspaceTitle,
			NewContentStreamID: streamID,
		},
	)}, nil
}

func (h *Handler) handleCreate(ctx context.Context, cmd command.CreateWorkspace, bus CommandBus) (Outcome, error) {
	if err := h.requireToNotExist(cmd.WorkspaceName); err != nil {
		return Outcome{}, err
	}
	base, ok := h.workspaces.FindByName(cmd.BaseWorkspaceName)
	if !ok {
		return Outcome{}, baseDoesNotExist(cmd.BaseWorkspaceName)
	}
	streamID := h.idOrNew(cmd.NewContentStreamID)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: streamID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Events: eventstore.NewEventsToPublish(
		event.WorkspaceStreamName(cmd.WorkspaceName),
		eventstore.NoStream(),
		event.WorkspaceWasCreated{
			WorkspaceName:      cmd.WorkspaceName,
			BaseWorkspaceName:  cmd.BaseWorkspaceName,
			WorkspaceTitle:     cmd.WorkspaceTitle,
			NewContentStreamID: streamID,
		},
	)}, nil
}

// handleRebase forks the base tip and replays the workspace's own commands
// onto the fork.
func (h *Handler) handleRebase(ctx context.Context, cmd command.RebaseWorkspace, bus CommandBus) (Outcome, error) {
	ws, base, err := h.requireWorkspaceWithBase(cmd.WorkspaceName)
	if err != nil {
		return Outcome{}, err
	}
	commands, err := h.recordedCommands(ctx, ws.ContentStreamID)
	if err != nil {
		return Outcome{}, err
	}
	rebasedID := h.idOrNew(cmd.RebasedContentStreamID)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: rebasedID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	conflicts, err := replay(ctx, bus, commands, rebasedID)
	if err != nil {
		return Outcome{}, err
	}

	stream := event.WorkspaceStreamName(ws.Name)
	if len(conflicts) > 0 && cmd.EffectiveStrategy() == command.RebaseFailOnConflict {
		return Outcome{
			Events: eventstore.NewEventsToPublish(stream, eventstore.Exactly(ws.Version), event.WorkspaceRebaseFailed{
				WorkspaceName:            ws.Name,
				CandidateContentStreamID: rebasedID,
				PreviousContentStreamID:  ws.ContentStreamID,
				Conflicts:                conflicts,
			}),
			Conflicts: conflicts,
			Failed:    true,
		}, nil
	}
	return Outcome{
		Events: eventstore.NewEventsToPublish(stream, eventstore.Exactly(ws.Version), event.WorkspaceWasRebased{
			WorkspaceName:           ws.Name,
			NewContentStreamID:      rebasedID,
			PreviousContentStreamID: ws.ContentStreamID,
			SkippedCommands:         conflicts,
		}),
		Conflicts: conflicts,
	}, nil
}

// handlePublish copies the workspace's own events onto the base stream,
// guarded by the base version the workspace was forked from, and restarts the
// workspace on the new base tip.
func (h *Handler) handlePublish(ctx context.Context, cmd command.PublishWorkspace, bus CommandBus) (Outcome, error) {
	ws, base, err := h.requireWorkspaceWithBase(cmd.WorkspaceName)
	if err != nil {
		return Outcome{}, err
	}
	own, ok := h.streams.Find(ws.ContentStreamID)
	if !ok {
		return Outcome{}, streamDoesNotExist(ws.ContentStreamID)
	}
	if own.SourceID != base.ContentStreamID {
		return Outcome{}, baseModified(ws.Name)
	}
	if err := h.publishOwnEvents(ctx, bus, ws, base, own.ID, own.SourceVersion); err != nil {
		return Outcome{}, err
	}

	newID := h.idOrNew(cmd.NewContentStreamID)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: newID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Events: eventstore.NewEventsToPublish(
		event.WorkspaceStreamName(ws.Name),
		eventstore.Exactly(ws.Version),
		event.WorkspaceWasPublished{
			SourceWorkspaceName:           ws.Name,
			TargetWorkspaceName:           base.Name,
			NewSourceContentStreamID:      newID,
			PreviousSourceContentStreamID: ws.ContentStreamID,
		},
	)}, nil
}

// handlePublishIndividualNodes replays the matching commands onto a fork of
// the base and publishes that fork. The remaining commands are replayed onto
// a fork of the new base tip, which becomes the workspace's stream.
func (h *Handler) handlePublishIndividualNodes(ctx context.Context, cmd command.PublishIndividualNodesFromWorkspace, bus CommandBus) (Outcome, error) {
	ws, base, err := h.requireWorkspaceWithBase(cmd.WorkspaceName)
	if err != nil {
		return Outcome{}, err
	}
	commands, err := h.recordedCommands(ctx, ws.ContentStreamID)
	if err != nil {
		return Outcome{}, err
	}
	matching, remaining := partition(commands, cmd.NodesToPublish)

	matchingID := h.idOrNew(cmd.ContentStreamIDForMatchingPart)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: matchingID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	conflicts, err := replay(ctx, bus, matching, matchingID)
	if err != nil {
		return Outcome{}, err
	}
	if len(conflicts) > 0 {
		if err := bus.Dispatch(ctx, command.RemoveContentStream{ContentStreamID: matchingID}); err != nil {
			return Outcome{}, err
		}
		return Outcome{Conflicts: conflicts, Failed: true}, nil
	}

	fork, ok := h.streams.Find(matchingID)
	if !ok {
		return Outcome{}, streamDoesNotExist(matchingID)
	}
	if err := h.publishOwnEvents(ctx, bus, ws, base, matchingID, fork.SourceVersion); err != nil {
		return Outcome{}, err
	}
	if err := bus.Dispatch(ctx, command.RemoveContentStream{ContentStreamID: matchingID}); err != nil {
		return Outcome{}, err
	}

	remainingID := h.idOrNew(cmd.ContentStreamIDForRemainingPart)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: remainingID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	skipped, err := replay(ctx, bus, remaining, remainingID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Events: eventstore.NewEventsToPublish(
			event.WorkspaceStreamName(ws.Name),
			eventstore.Exactly(ws.Version),
			event.WorkspaceWasPartiallyPublished{
				SourceWorkspaceName:           ws.Name,
				TargetWorkspaceName:           base.Name,
				NewSourceContentStreamID:      remainingID,
				PreviousSourceContentStreamID: ws.ContentStreamID,
				PublishedNodes:                cmd.NodesToPublish,
			},
		),
		Conflicts: skipped,
	}, nil
}

func (h *Handler) handleDiscard(ctx context.Context, cmd command.DiscardWorkspace, bus CommandBus) (Outcome, error) {
	ws, base, err := h.requireWorkspaceWithBase(cmd.WorkspaceName)
	if err != nil {
		return Outcome{}, err
	}
	newID := h.idOrNew(cmd.NewContentStreamID)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: newID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Events: eventstore.NewEventsToPublish(
		event.WorkspaceStreamName(ws.Name),
		eventstore.Exactly(ws.Version),
		event.WorkspaceWasDiscarded{
			WorkspaceName:           ws.Name,
			NewContentStreamID:      newID,
			PreviousContentStreamID: ws.ContentStreamID,
		},
	)}, nil
}

// handleDiscardIndividualNodes replays every command but the selected ones
// onto a fork of the base tip.
func (h *Handler) handleDiscardIndividualNodes(ctx context.Context, cmd command.DiscardIndividualNodesFromWorkspace, bus CommandBus) (Outcome, error) {
	ws, base, err := h.requireWorkspaceWithBase(cmd.WorkspaceName)
	if err != nil {
		return Outcome{}, err
	}
	commands, err := h.recordedCommands(ctx, ws.ContentStreamID)
	if err != nil {
		return Outcome{}, err
	}
	_, remaining := partition(commands, cmd.NodesToDiscard)

	newID := h.idOrNew(cmd.NewContentStreamID)
	if err := bus.Dispatch(ctx, command.ForkContentStream{NewContentStreamID: newID, SourceContentStreamID: base.ContentStreamID}); err != nil {
		return Outcome{}, err
	}
	conflicts, err := replay(ctx, bus, remaining, newID)
	if err != nil {
		return Outcome{}, err
	}
	if len(conflicts) > 0 {
		if err := bus.Dispatch(ctx, command.RemoveContentStream{ContentStreamID: newID}); err != nil {
			return Outcome{}, err
		}
		return Outcome{Conflicts: conflicts, Failed: true}, nil
	}
	return Outcome{Events: eventstore.NewEventsToPublish(
		event.WorkspaceStreamName(ws.Name),
		eventstore.Exactly(ws.Version),
		event.WorkspaceWasPartiallyDiscarded{
			WorkspaceName:           ws.Name,
			NewContentStreamID:      newID,
			PreviousContentStreamID: ws.ContentStreamID,
			DiscardedNodes:          cmd.NodesToDiscard,
		},
	)}, nil
}

// publishOwnEvents appends the own events of source to the base stream,
// expecting the base to still be at baseVersion.
func (h *Handler) publishOwnEvents(ctx context.Context, bus CommandBus, ws, base Workspace, source node.ContentStreamID, baseVersion int64) error {
	records, err := eventstore.OwnRecords(ctx, h.store, source)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	pending := make([]eventstore.Pending, 0, len(records))
	for _, record := range records {
		rebasable, ok := record.Event.(event.RebasableEvent)
		if !ok {
			return fmt.Errorf("event %s of %s cannot be published", record.Type, source)
		}
		pending = append(pending, eventstore.Pending{
			Event:    rebasable.CopyForContentStream(base.ContentStreamID),
			Metadata: record.Metadata,
		})
	}
	err = bus.Publish(ctx, eventstore.EventsToPublish{
		StreamName:      event.ContentStreamStreamName(base.ContentStreamID),
		Events:          pending,
		ExpectedVersion: eventstore.Exactly(baseVersion),
	})
	if apperrors.IsCode(err, apperrors.CodeConcurrencyConflict) {
		return baseModified(ws.Name)
	}
	return err
}

// recordedCommand is a command found in the metadata of a stream's records.
type recordedCommand struct {
	index int
	cmd   command.NodeCommand
}

func (h *Handler) recordedCommands(ctx context.Context, id node.ContentStreamID) ([]recordedCommand, error) {
	records, err := eventstore.OwnRecords(ctx, h.store, id)
	if err != nil {
		return nil, err
	}
	var out []recordedCommand
	for _, record := range records {
		cmd, ok, err := command.FromMetadata(record.Metadata)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		nodeCmd, ok := cmd.(command.NodeCommand)
		if !ok {
			continue
		}
		out = append(out, recordedCommand{index: len(out), cmd: nodeCmd})
	}
	return out, nil
}

// replay dispatches the commands onto target in order and collects the ones
// that fail. Context errors abort the replay.
func replay(ctx context.Context, bus CommandBus, commands []recordedCommand, target node.ContentStreamID) ([]event.CommandConflict, error) {
	var conflicts []event.CommandConflict
	for _, recorded := range commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := bus.Dispatch(ctx, recorded.cmd.CopyForContentStream(target))
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		conflicts = append(conflicts, event.CommandConflict{
			CommandIndex:    recorded.index,
			CommandType:     string(recorded.cmd.CommandType()),
			NodeAggregateID: recorded.cmd.AggregateID(),
			ErrorCode:       string(apperrors.GetCode(err)),
			ErrorMessage:    err.Error(),
		})
	}
	return conflicts, nil
}

// partition splits commands into those matching any selector and the rest,
// keeping their relative order.
func partition(commands []recordedCommand, selectors []node.NodeIDToPublishOrDiscard) (matching, remaining []recordedCommand) {
	for _, recorded := range commands {
		if matchesAny(recorded.cmd, selectors) {
			matching = append(matching, recorded)
		} else {
			remaining = append(remaining, recorded)
		}
	}
	return matching, remaining
}

func matchesAny(cmd command.NodeCommand, selectors []node.NodeIDToPublishOrDiscard) bool {
	for _, selector := range selectors {
		if cmd.MatchesNodeID(selector) {
			return true
		}
	}
	return false
}

func (h *Handler) idOrNew(id node.ContentStreamID) node.ContentStreamID {
	if id.IsEmpty() {
		return h.newID()
	}
	return id
}

func (h *Handler) requireToNotExist(name node.WorkspaceName) error {
	if _, ok := h.workspaces.FindByName(name); ok {
		return apperrors.WithMetadata(apperrors.CodeWorkspaceAlreadyExists,
			fmt.Sprintf("workspace %s already exists", name),
			map[string]string{"WorkspaceName": string(name)})
	}
	return nil
}

func (h *Handler) requireWorkspaceWithBase(name node.WorkspaceName) (Workspace, Workspace, error) {
	ws, ok := h.workspaces.FindByName(name)
	if !ok {
		return Workspace{}, Workspace{}, apperrors.WithMetadata(apperrors.CodeWorkspaceDoesNotExist,
			fmt.Sprintf("workspace %s does not exist", name),
			map[string]string{"WorkspaceName": string(name)})
	}
	if ws.IsRoot() {
		return Workspace{}, Workspace{}, apperrors.WithMetadata(apperrors.CodeWorkspaceHasNoBase,
			fmt.Sprintf("workspace %s has no base workspace", name),
			map[string]string{"WorkspaceName": string(name)})
	}
	base, ok := h.workspaces.FindByName(ws.BaseName)
	if !ok {
		return Workspace{}, Workspace{}, baseDoesNotExist(ws.BaseName)
	}
	return ws, base, nil
}

// ConflictError reports the conflicts of an aborted operation.
func ConflictError(name node.WorkspaceName, conflicts []event.CommandConflict) error {
	return apperrors.WithMetadata(apperrors.CodeWorkspaceRebaseConflict,
		fmt.Sprintf("workspace %s: %d commands conflict", name, len(conflicts)),
		map[string]string{"WorkspaceName": string(name), "ConflictCount": strconv.Itoa(len(conflicts))})
}

func baseDoesNotExist(name node.WorkspaceName) error {
	return apperrors.WithMetadata(apperrors.CodeBaseWorkspaceDoesNotExist,
		fmt.Sprintf("base workspace %s does not exist", name),
		map[string]string{"WorkspaceName": string(name)})
}

func baseModified(name node.WorkspaceName) error {
	return apperrors.WithMetadata(apperrors.CodeBaseWorkspaceHasBeenModifiedInTheMeantime,
		fmt.Sprintf("base of workspace %s has been modified in the meantime", name),
		map[string]string{"WorkspaceName": string(name)})
}

func streamDoesNotExist(id node.ContentStreamID) error {
	return apperrors.WithMetadata(apperrors.CodeContentStreamDoesNotExistYet,
		fmt.Sprintf("content stream %s does not exist yet", id),
		map[string]string{"ContentStreamID": string(id)})
}
