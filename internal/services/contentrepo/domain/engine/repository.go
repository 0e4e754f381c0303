package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/platform/logging"
	"github.com/louisbranch/contentrepository/internal/platform/requestctx"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/checkpoint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/constraint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentgraph"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentstream"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodeaggregate"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/replay"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/workspace"
)

const tracerName = "contentrepo/engine"

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrDimensionsRequired indicates a missing dimension source.
	ErrDimensionsRequired = errors.New("dimension source is required")
	// ErrNodeTypesRequired indicates a missing node type manager.
	ErrNodeTypesRequired = errors.New("node type manager is required")
	// ErrCommandRequired indicates a nil command.
	ErrCommandRequired = errors.New("command is required")
)

// Config holds the collaborators of a content repository.
type Config struct {
	Store      eventstore.Store
	Dimensions *dimension.Source
	NodeTypes  *nodetype.Manager
	// Checkpoints defaults to an in-memory store.
	Checkpoints replay.CheckpointStore
	Logger      *logging.Logger
	// PageSize bounds the records read per catch-up round trip.
	PageSize int
}

// CommandResult describes the last batch committed for a command. Conflicts
// lists the recorded commands a workspace operation could not re-apply.
type CommandResult struct {
	StreamName event.StreamName
	Version    int64
	Sequence   uint64
	Conflicts  []event.CommandConflict
}

// ContentRepository decides commands and keeps its read models current.
type ContentRepository struct {
	store       eventstore.Store
	checkpoints replay.CheckpointStore
	logger      *logging.Logger
	tracer      trace.Tracer
	pageSize    int

	zookeeper  *dimension.Zookeeper
	variation  *dimension.VariationGraph
	nodeTypes  *nodetype.Manager
	graph      *contentgraph.Projection
	streams    *contentstream.Finder
	workspaces *workspace.Finder

	streamHandler    *contentstream.Handler
	nodeHandler      *nodeaggregate.Handler
	workspaceHandler *workspace.Handler

	catchUpMu sync.Mutex
}

// New builds a content repository and catches its projections up with the
// records already in the store.
func New(ctx context.Context, cfg Config) (*ContentRepository, error) {
	if cfg.Store == nil {
		return nil, ErrEventStoreRequired
	}
	if cfg.Dimensions == nil {
		return nil, ErrDimensionsRequired
	}
	if cfg.NodeTypes == nil {
		return nil, ErrNodeTypesRequired
	}
	checkpoints := cfg.Checkpoints
	if checkpoints == nil {
		checkpoints = checkpoint.NewMemory()
	}

	zookeeper := dimension.NewZookeeper(cfg.Dimensions)
	variation := dimension.NewVariationGraph(cfg.Dimensions, zookeeper)
	graph := contentgraph.NewProjection()
	streams := contentstream.NewFinder()
	workspaces := workspace.NewFinder(streams)
	checker := constraint.NewChecker(graph, cfg.NodeTypes, zookeeper, streams)

	r := &ContentRepository{
		store:            cfg.Store,
		checkpoints:      checkpoints,
		logger:           logging.OrNop(cfg.Logger).With("component", "contentrepo"),
		tracer:           otel.Tracer(tracerName),
		pageSize:         cfg.PageSize,
		zookeeper:        zookeeper,
		variation:        variation,
		nodeTypes:        cfg.NodeTypes,
		graph:            graph,
		streams:          streams,
		workspaces:       workspaces,
		streamHandler:    contentstream.NewHandler(streams),
		nodeHandler:      nodeaggregate.NewHandler(checker, graph, variation, zookeeper),
		workspaceHandler: workspace.NewHandler(workspaces, streams, cfg.Store),
	}
	if err := r.CatchUp(ctx); err != nil {
		return nil, fmt.Errorf("catch up projections: %w", err)
	}
	return r, nil
}

// Handle validates cmd, decides it, commits the resulting batch and catches
// the projections up. A command that fails leaves nothing behind except the
// sub-commands a workspace operation already committed.
func (r *ContentRepository) Handle(ctx context.Context, cmd command.Command) (CommandResult, error) {
	if cmd == nil {
		return CommandResult{}, ErrCommandRequired
	}
	ctx, span := r.tracer.Start(ctx, "contentrepo."+string(cmd.CommandType()),
		trace.WithAttributes(attribute.String("contentrepo.command", string(cmd.CommandType()))))
	defer span.End()

	result, err := r.handle(ctx, cmd)
	span.SetAttributes(
		attribute.String("contentrepo.stream", string(result.StreamName)),
		attribute.Int64("contentrepo.version", result.Version),
		attribute.Int("contentrepo.conflicts", len(result.Conflicts)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logFailure(cmd, err)
		return result, err
	}
	return result, nil
}

// Dispatch implements workspace.CommandBus.
func (r *ContentRepository) Dispatch(ctx context.Context, cmd command.Command) error {
	if cmd == nil {
		return ErrCommandRequired
	}
	_, err := r.handle(ctx, cmd)
	return err
}

// Publish implements workspace.CommandBus.
func (r *ContentRepository) Publish(ctx context.Context, batch eventstore.EventsToPublish) error {
	_, err := r.commit(ctx, batch)
	return err
}

func (r *ContentRepository) handle(ctx context.Context, cmd command.Command) (CommandResult, error) {
	if err := cmd.Validate(); err != nil {
		return CommandResult{}, err
	}
	var (
		batch eventstore.EventsToPublish
		err   error
	)
	switch c := cmd.(type) {
	case command.CreateContentStream:
		batch, err = r.streamHandler.HandleCreate(c)
	case command.ForkContentStream:
		batch, err = r.streamHandler.HandleFork(c)
	case command.CloseContentStream:
		batch, err = r.streamHandler.HandleClose(c)
	case command.RemoveContentStream:
		batch, err = r.streamHandler.HandleRemove(c)
	case command.CreateRootWorkspace,
		command.CreateWorkspace,
		command.RebaseWorkspace,
		command.PublishWorkspace,
		command.PublishIndividualNodesFromWorkspace,
		command.DiscardWorkspace,
		command.DiscardIndividualNodesFromWorkspace:
		return r.handleWorkspace(ctx, cmd)
	case command.NodeCommand:
		batch, err = r.nodeHandler.Handle(c)
	default:
		return CommandResult{}, apperrors.WithMetadata(apperrors.CodeUnknownCommand,
			fmt.Sprintf("unknown command %T", cmd),
			map[string]string{"CommandType": fmt.Sprintf("%T", cmd)})
	}
	if err != nil {
		return CommandResult{}, err
	}
	metadata, err := command.NewMetadata(cmd)
	if err != nil {
		return CommandResult{}, err
	}
	committed, err := r.commit(ctx, batch.WithCommandMetadata(metadata))
	if err != nil {
		return CommandResult{}, err
	}
	r.logger.Debug("command handled",
		"command", cmd.CommandType(),
		"stream", batch.StreamName,
		"events", len(batch.Events),
		"version", committed.Version,
	)
	return CommandResult{StreamName: batch.StreamName, Version: committed.Version, Sequence: committed.Sequence}, nil
}

func (r *ContentRepository) handleWorkspace(ctx context.Context, cmd command.Command) (CommandResult, error) {
	outcome, err := r.workspaceHandler.Handle(ctx, cmd, r)
	if err != nil {
		return CommandResult{}, err
	}
	batch := outcome.Events
	if !batch.IsEmpty() {
		metadata, err := command.NewMetadata(cmd)
		if err != nil {
			return CommandResult{}, err
		}
		batch = batch.WithCommandMetadata(metadata)
	}
	committed, err := r.commit(ctx, batch)
	if err != nil {
		return CommandResult{}, err
	}
	result := CommandResult{
		StreamName: batch.StreamName,
		Version:    committed.Version,
		Sequence:   committed.Sequence,
		Conflicts:  outcome.Conflicts,
	}
	name := workspaceNameOf(cmd)
	if outcome.Failed {
		r.logger.Warn("workspace operation aborted",
			"command", cmd.CommandType(),
			"workspace", name,
			"conflicts", len(outcome.Conflicts),
		)
		return result, workspace.ConflictError(name, outcome.Conflicts)
	}
	if len(outcome.Conflicts) > 0 {
		r.logger.Warn("workspace commands skipped",
			"command", cmd.CommandType(),
			"workspace", name,
			"conflicts", len(outcome.Conflicts),
		)
	}
	r.logger.Debug("command handled",
		"command", cmd.CommandType(),
		"workspace", name,
		"version", committed.Version,
	)
	return result, nil
}

// commit appends batch on behalf of the user carried by ctx and brings every
// projection up to date. An empty batch commits nothing.
func (r *ContentRepository) commit(ctx context.Context, batch eventstore.EventsToPublish) (eventstore.CommitResult, error) {
	if batch.IsEmpty() {
		return eventstore.CommitResult{Version: eventstore.NoVersion}, nil
	}
	batch = batch.WithInitiatingUser(requestctx.UserIDFromContext(ctx))
	committed, err := eventstore.Publish(ctx, r.store, batch)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConcurrencyConflict) {
			r.logger.Warn("concurrency conflict",
				"stream", batch.StreamName,
				"expected", batch.ExpectedVersion.String(),
			)
		}
		return eventstore.CommitResult{}, err
	}
	if err := r.CatchUp(ctx); err != nil {
		r.logger.Error("projection catch-up failed", "stream", batch.StreamName, "sequence", committed.Sequence, "error", err)
		return committed, err
	}
	return committed, nil
}

// CatchUp applies every committed record the projections have not seen yet,
// then drops the runtime cache of the content graph.
func (r *ContentRepository) CatchUp(ctx context.Context) error {
	r.catchUpMu.Lock()
	defer r.catchUpMu.Unlock()
	defer r.graph.Invalidate()

	g, gctx := errgroup.WithContext(ctx)
	for _, projection := range r.projections() {
		g.Go(func() error {
			_, err := replay.CatchUp(gctx, r.store, r.checkpoints, projection, replay.Options{PageSize: r.pageSize})
			return err
		})
	}
	return g.Wait()
}

// ReplayProjections rebuilds every read model from the full event history.
func (r *ContentRepository) ReplayProjections(ctx context.Context) error {
	r.catchUpMu.Lock()
	for _, projection := range r.projections() {
		if err := replay.Reset(ctx, r.checkpoints, projection); err != nil {
			r.catchUpMu.Unlock()
			return err
		}
	}
	r.catchUpMu.Unlock()
	return r.CatchUp(ctx)
}

func (r *ContentRepository) projections() []replay.Projection {
	return []replay.Projection{r.graph, r.streams, r.workspaces}
}

// History returns the logical event history of a content stream, including
// the part inherited from its fork sources.
func (r *ContentRepository) History(ctx context.Context, id node.ContentStreamID) ([]eventstore.Record, error) {
	return eventstore.LoadWithAncestry(ctx, r.store, id)
}

// ContentGraph returns the node aggregate read model.
func (r *ContentRepository) ContentGraph() *contentgraph.Projection { return r.graph }

// ContentStreams returns the content stream read model.
func (r *ContentRepository) ContentStreams() *contentstream.Finder { return r.streams }

// Workspaces returns the workspace read model.
func (r *ContentRepository) Workspaces() *workspace.Finder { return r.workspaces }

// VariationGraph returns the inter-dimensional variation graph.
func (r *ContentRepository) VariationGraph() *dimension.VariationGraph { return r.variation }

// Zookeeper returns the allowed dimension subspace.
func (r *ContentRepository) Zookeeper() *dimension.Zookeeper { return r.zookeeper }

// NodeTypes returns the node type schema.
func (r *ContentRepository) NodeTypes() *nodetype.Manager { return r.nodeTypes }

// EventStore returns the underlying event store.
func (r *ContentRepository) EventStore() eventstore.Store { return r.store }

func (r *ContentRepository) logFailure(cmd command.Command, err error) {
	code := apperrors.GetCode(err)
	switch code.Category() {
	case apperrors.CategoryIntegrityDefect:
		r.logger.Error("integrity defect", "command", cmd.CommandType(), "code", code, "error", err)
	case apperrors.CategoryConcurrency:
		r.logger.Warn("command lost the version race", "command", cmd.CommandType(), "error", err)
	default:
		r.logger.Debug("command rejected", "command", cmd.CommandType(), "code", code, "error", err)
	}
}

func workspaceNameOf(cmd command.Command) node.WorkspaceName {
	switch c := cmd.(type) {
	case command.CreateRootWorkspace:
		return c.WorkspaceName
	case command.CreateWorkspace:
		return c.WorkspaceName
	case command.RebaseWorkspace:
		return c.WorkspaceName
	case command.PublishWorkspace:
		return c.WorkspaceName
	case command.PublishIndividualNodesFromWorkspace:
		return c.WorkspaceName
	case command.DiscardWorkspace:
		return c.WorkspaceName
	case command.DiscardIndividualNodesFromWorkspace:
		return c.WorkspaceName
	default:
		return ""
	}
}
