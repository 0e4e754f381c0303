package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/replay"
)

func TestMemoryCheckpoint_SaveAndGet(t *testing.T) {
	store := NewMemory()
	checkpoint := replay.Checkpoint{
		Projection: "contentgraph",
		LastSeq:    42,
		UpdatedAt:  time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
	}

	if err := store.Save(context.Background(), checkpoint); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	loaded, err := store.Get(context.Background(), "contentgraph")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if loaded.LastSeq != checkpoint.LastSeq {
		t.Fatalf("last seq = %d, want %d", loaded.LastSeq, checkpoint.LastSeq)
	}
}

func TestMemoryCheckpoint_GetMissingReturnsNotFound(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("error = %v, want %v", err, replay.ErrCheckpointNotFound)
	}
}

func TestMemoryCheckpoint_Delete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	if err := store.Save(ctx, replay.Checkpoint{Projection: "workspace", LastSeq: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "workspace"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "workspace"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryCheckpoint_RequiresProjection(t *testing.T) {
	store := NewMemory()
	if err := store.Save(context.Background(), replay.Checkpoint{Projection: " "}); !errors.Is(err, ErrProjectionRequired) {
		t.Fatalf("expected projection required, got %v", err)
	}
}

func TestMemoryCheckpoint_CanceledContext(t *testing.T) {
	store := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Get(ctx, "contentgraph"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
