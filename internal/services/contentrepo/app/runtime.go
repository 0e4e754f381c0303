// Package app assembles a content repository process: schema and dimension
// configuration, the event store, the engine and the periodic pruner.
package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/platform/logging"
	"github.com/louisbranch/contentrepository/internal/platform/requestctx"
	"github.com/louisbranch/contentrepository/internal/platform/timeouts"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/engine"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/pruner"
	crsqlite "github.com/louisbranch/contentrepository/internal/services/contentrepo/storage/sqlite"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// RuntimeConfig controls content repository startup and loop behavior.
type RuntimeConfig struct {
	DimensionsPath string
	NodeTypesPath  string
	// EventsPath selects the SQLite event store; empty keeps events in memory.
	EventsPath string
	// CommandsPath names a JSON lines file of commands applied at startup.
	CommandsPath  string
	PruneInterval time.Duration
	Locale        string
	Logger        *logging.Logger
}

const defaultPruneInterval = 5 * time.Minute

// Runtime holds the assembled repository and its maintenance collaborators.
type Runtime struct {
	Repository *engine.ContentRepository
	Pruner     *pruner.Pruner

	logger *logging.Logger
	locale string
	closer io.Closer
}

// CommandLine is one entry of a commands file.
type CommandLine struct {
	Type    command.Type    `json:"type"`
	Payload json.RawMessage `json:"payload"`
	// UserID is recorded as the initiating user of the committed events.
	UserID string `json:"userId,omitempty"`
}

// ApplyReport summarizes a commands file run.
type ApplyReport struct {
	Applied  int
	Failures []CommandFailure
}

// CommandFailure records one rejected command with its localized message.
type CommandFailure struct {
	Line    int
	Type    command.Type
	Code    apperrors.Code
	Message string
}

// Run starts the content repository and prunes it until ctx is done.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runtime, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := runtime.Close(); closeErr != nil {
			runtime.logger.Warn("close event store", "error", closeErr)
		}
	}()

	if path := strings.TrimSpace(cfg.CommandsPath); path != "" {
		report, err := runtime.ApplyCommandsFile(ctx, path)
		if err != nil {
			return err
		}
		runtime.logger.Info("commands applied", "path", path, "applied", report.Applied, "failed", len(report.Failures))
	}

	interval := cfg.PruneInterval
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	runtime.logger.Info("content repository ready", "prune_interval", interval.String())
	runtime.RunPruneLoop(ctx, interval)
	return nil
}

// Open loads configuration files, opens the event store and replays the
// projections.
func Open(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	if strings.TrimSpace(cfg.DimensionsPath) == "" {
		return nil, fmt.Errorf("dimensions path is required")
	}
	if strings.TrimSpace(cfg.NodeTypesPath) == "" {
		return nil, fmt.Errorf("node types path is required")
	}
	logger := logging.OrNop(cfg.Logger)

	dimensions, err := dimension.LoadSourceFile(cfg.DimensionsPath)
	if err != nil {
		return nil, fmt.Errorf("load dimensions: %w", err)
	}
	nodeTypes, err := nodetype.LoadManagerFile(cfg.NodeTypesPath)
	if err != nil {
		return nil, fmt.Errorf("load node types: %w", err)
	}

	store, closer, err := openEventStore(cfg.EventsPath)
	if err != nil {
		return nil, err
	}
	repo, err := engine.New(ctx, engine.Config{
		Store:      store,
		Dimensions: dimensions,
		NodeTypes:  nodeTypes,
		Logger:     logger,
	})
	if err != nil {
		closeQuietly(closer, logger)
		return nil, fmt.Errorf("start content repository: %w", err)
	}
	prune, err := pruner.ForRepository(repo, logger)
	if err != nil {
		closeQuietly(closer, logger)
		return nil, fmt.Errorf("start pruner: %w", err)
	}

	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = apperrors.DefaultLocale
	}
	return &Runtime{Repository: repo, Pruner: prune, logger: logger, locale: locale, closer: closer}, nil
}

// Close releases the event store.
func (r *Runtime) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ApplyCommandsFile applies the commands of a JSON lines file.
func (r *Runtime) ApplyCommandsFile(ctx context.Context, path string) (ApplyReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return ApplyReport{}, fmt.Errorf("open commands file: %w", err)
	}
	defer file.Close()
	return r.ApplyCommands(ctx, file)
}

// ApplyCommands applies one command per non-empty line. A rejected command is
// reported and the run continues; malformed lines abort it.
func (r *Runtime) ApplyCommands(ctx context.Context, in io.Reader) (ApplyReport, error) {
	var report ApplyReport
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var line CommandLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return report, fmt.Errorf("line %d: decode command line: %w", lineNumber, err)
		}
		cmd, err := command.Decode(line.Type, line.Payload)
		if err != nil {
			return report, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		cmdCtx := ctx
		if line.UserID != "" {
			cmdCtx = requestctx.WithUserID(ctx, line.UserID)
		}
		if _, err := r.Repository.Handle(cmdCtx, cmd); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			failure := CommandFailure{
				Line:    lineNumber,
				Type:    line.Type,
				Code:    apperrors.GetCode(err),
				Message: localizedMessage(err, r.locale),
			}
			r.logger.Warn("command rejected", "line", lineNumber, "command", line.Type, "code", failure.Code, "message", failure.Message)
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Applied++
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read commands: %w", err)
	}
	return report, nil
}

// RunPruneLoop prunes once immediately and then on every tick until ctx is
// done.
func (r *Runtime) RunPruneLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	r.pruneOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pruneOnce(ctx)
		}
	}
}

func (r *Runtime) pruneOnce(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, timeouts.PrunePass)
	defer cancel()
	if _, err := r.Pruner.Prune(passCtx); err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("prune content streams", "error", err)
		}
		return
	}
	if _, err := r.Pruner.PruneRemovedFromEventStream(passCtx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("delete removed content streams", "error", err)
	}
}

// localizedMessage returns the catalog message for err in locale, falling
// back to the status message when no localized detail is attached.
func localizedMessage(err error, locale string) string {
	st := status.Convert(apperrors.HandleError(err, locale))
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok && msg.GetMessage() != "" {
			return msg.GetMessage()
		}
	}
	return st.Message()
}

func openEventStore(path string) (eventstore.Store, io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return eventstore.NewMemory(), nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create event storage dir: %w", err)
		}
	}
	store, err := crsqlite.OpenEvents(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open event sqlite store: %w", err)
	}
	return store, store, nil
}

func closeQuietly(closer io.Closer, logger *logging.Logger) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("close event store", "error", err)
	}
}
