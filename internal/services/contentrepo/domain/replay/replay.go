// Package replay catches projections up with the global event sequence.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
)

const defaultPageSize = 200

var (
	// ErrEventSourceRequired indicates a missing event source.
	ErrEventSourceRequired = errors.New("event source is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrProjectionRequired indicates a missing projection.
	ErrProjectionRequired = errors.New("projection is required")
	// ErrProjectionNameRequired indicates a projection without name.
	ErrProjectionNameRequired = errors.New("projection name is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// EventSource lists committed records across all streams.
type EventSource interface {
	LoadAll(ctx context.Context, afterSequence uint64, limit int) ([]eventstore.Record, error)
}

// CheckpointStore manages the last applied sequence per projection.
type CheckpointStore interface {
	Get(ctx context.Context, projection string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
	Delete(ctx context.Context, projection string) error
}

// Projection folds committed records into read-model state. Apply must
// tolerate a record it has already seen.
type Projection interface {
	Name() string
	Apply(record eventstore.Record) error
	Reset()
}

// Checkpoint captures the last applied sequence of a projection.
type Checkpoint struct {
	Projection string
	LastSeq    uint64
	UpdatedAt  time.Time
}

// Options configures catch-up behavior.
type Options struct {
	UntilSeq uint64
	PageSize int
}

// Result captures catch-up outcomes.
type Result struct {
	LastSeq uint64
	Applied int
}

// CatchUp applies every record after the projection's checkpoint in sequence
// order and saves the checkpoint after each apply. Sequences may skip values
// left by pruned streams but must never go backwards.
func CatchUp(ctx context.Context, source EventSource, checkpoints CheckpointStore, projection Projection, options Options) (Result, error) {
	if source == nil {
		return Result{}, ErrEventSourceRequired
	}
	if checkpoints == nil {
		return Result{}, ErrCheckpointStoreRequired
	}
	if projection == nil {
		return Result{}, ErrProjectionRequired
	}
	name := strings.TrimSpace(projection.Name())
	if name == "" {
		return Result{}, ErrProjectionNameRequired
	}

	var result Result
	checkpoint, err := checkpoints.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			return Result{}, err
		}
	} else {
		result.LastSeq = checkpoint.LastSeq
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	for {
		records, err := source.LoadAll(ctx, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(records) == 0 {
			return result, nil
		}
		for _, record := range records {
			if options.UntilSeq > 0 && record.Sequence > options.UntilSeq {
				return result, nil
			}
			if record.Sequence <= result.LastSeq {
				return result, fmt.Errorf("event sequence regression: %d after %d", record.Sequence, result.LastSeq)
			}
			if err := projection.Apply(record); err != nil {
				return result, fmt.Errorf("%s: apply %s #%d: %w", name, record.Type, record.Sequence, err)
			}
			result.LastSeq = record.Sequence
			result.Applied++
			if err := checkpoints.Save(ctx, Checkpoint{Projection: name, LastSeq: result.LastSeq, UpdatedAt: time.Now().UTC()}); err != nil {
				return result, err
			}
		}
	}
}

// Reset clears the projection state and its checkpoint so the next catch-up
// replays the full history.
func Reset(ctx context.Context, checkpoints CheckpointStore, projection Projection) error {
	if checkpoints == nil {
		return ErrCheckpointStoreRequired
	}
	if projection == nil {
		return ErrProjectionRequired
	}
	projection.Reset()
	return checkpoints.Delete(ctx, projection.Name())
}
