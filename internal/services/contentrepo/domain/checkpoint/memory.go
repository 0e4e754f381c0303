// Package checkpoint stores projection catch-up checkpoints.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/replay"
)

var (
	// ErrProjectionRequired indicates a missing projection name.
	ErrProjectionRequired = errors.New("projection name is required")
)

// Memory stores checkpoints in memory.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]replay.Checkpoint
}

// NewMemory creates a new in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{checkpoints: make(map[string]replay.Checkpoint)}
}

// Get retrieves the checkpoint of a projection.
func (m *Memory) Get(ctx context.Context, projection string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	if m == nil {
		return replay.Checkpoint{}, errors.New("checkpoint store is required")
	}
	projection = strings.TrimSpace(projection)
	if projection == "" {
		return replay.Checkpoint{}, ErrProjectionRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint, ok := m.checkpoints[projection]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("checkpoint store is required")
	}
	projection := strings.TrimSpace(checkpoint.Projection)
	if projection == "" {
		return ErrProjectionRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.Projection = projection
	m.checkpoints[projection] = checkpoint
	return nil
}

// Delete forgets the checkpoint of a projection.
func (m *Memory) Delete(ctx context.Context, projection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("checkpoint store is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, strings.TrimSpace(projection))
	return nil
}
