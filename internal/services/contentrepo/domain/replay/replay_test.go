package replay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/checkpoint"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/replay"
)

type countingProjection struct {
	seen []uint64
	fail uint64
}

func (p *countingProjection) Name() string { return "counting" }

func (p *countingProjection) Apply(record eventstore.Record) error {
	if record.Sequence == p.fail {
		return errors.New("boom")
	}
	p.seen = append(p.seen, record.Sequence)
	return nil
}

func (p *countingProjection) Reset() { p.seen = nil }

func seedStore(t *testing.T, ids ...node.ContentStreamID) *eventstore.Memory {
	t.Helper()
	store := eventstore.NewMemory()
	for _, id := range ids {
		pending := []eventstore.Pending{{Event: event.ContentStreamWasCreated{ContentStreamID: id}}}
		if _, err := store.Commit(context.Background(), event.ContentStreamStreamName(id), pending, eventstore.NoStream()); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	return store
}

func TestCatchUpResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, "a", "b", "c")
	checkpoints := checkpoint.NewMemory()
	projection := &countingProjection{}

	result, err := replay.CatchUp(ctx, store, checkpoints, projection, replay.Options{PageSize: 2})
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if result.Applied != 3 || result.LastSeq != 3 {
		t.Fatalf("result = %+v", result)
	}

	if _, err := store.Commit(ctx, event.ContentStreamStreamName("d"),
		[]eventstore.Pending{{Event: event.ContentStreamWasCreated{ContentStreamID: "d"}}}, eventstore.NoStream()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	result, err = replay.CatchUp(ctx, store, checkpoints, projection, replay.Options{})
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if result.Applied != 1 || len(projection.seen) != 4 {
		t.Fatalf("result = %+v, seen = %v", result, projection.seen)
	}
}

func TestCatchUpStopsAtUntilSeq(t *testing.T) {
	store := seedStore(t, "a", "b", "c")
	projection := &countingProjection{}
	result, err := replay.CatchUp(context.Background(), store, checkpoint.NewMemory(), projection, replay.Options{UntilSeq: 2})
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if result.LastSeq != 2 || len(projection.seen) != 2 {
		t.Fatalf("result = %+v", result)
	}
}

func TestCatchUpToleratesPrunedSequences(t *testing.T) {
	store := seedStore(t, "a", "b", "c")
	if err := store.DeleteStream(context.Background(), event.ContentStreamStreamName("b")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	projection := &countingProjection{}
	if _, err := replay.CatchUp(context.Background(), store, checkpoint.NewMemory(), projection, replay.Options{}); err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if len(projection.seen) != 2 || projection.seen[1] != 3 {
		t.Fatalf("seen = %v", projection.seen)
	}
}

func TestCatchUpRejectsSequenceRegression(t *testing.T) {
	source := regressingSource{records: []eventstore.Record{{Sequence: 2}, {Sequence: 1}}}
	projection := &countingProjection{}
	_, err := replay.CatchUp(context.Background(), source, checkpoint.NewMemory(), projection, replay.Options{})
	if err == nil {
		t.Fatal("expected regression error")
	}
}

// regressingSource serves both records in one page regardless of the cursor.
type regressingSource struct {
	records []eventstore.Record
}

func (s regressingSource) LoadAll(_ context.Context, after uint64, _ int) ([]eventstore.Record, error) {
	if after > 0 {
		return nil, nil
	}
	return s.records, nil
}

func TestCatchUpKeepsCheckpointOnApplyError(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, "a", "b", "c")
	checkpoints := checkpoint.NewMemory()
	projection := &countingProjection{fail: 2}
	if _, err := replay.CatchUp(ctx, store, checkpoints, projection, replay.Options{}); err == nil {
		t.Fatal("expected apply error")
	}
	saved, err := checkpoints.Get(ctx, "counting")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if saved.LastSeq != 1 {
		t.Fatalf("checkpoint = %d, want 1", saved.LastSeq)
	}
}

func TestResetClearsStateAndCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, "a", "b")
	checkpoints := checkpoint.NewMemory()
	projection := &countingProjection{}
	if _, err := replay.CatchUp(ctx, store, checkpoints, projection, replay.Options{}); err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if err := replay.Reset(ctx, checkpoints, projection); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(projection.seen) != 0 {
		t.Fatalf("seen = %v", projection.seen)
	}
	result, err := replay.CatchUp(ctx, store, checkpoints, projection, replay.Options{})
	if err != nil {
		t.Fatalf("catch up: %v", err)
	}
	if result.Applied != 2 {
		t.Fatalf("applied = %d, want 2", result.Applied)
	}
}

func TestCatchUpRequiresCollaborators(t *testing.T) {
	if _, err := replay.CatchUp(context.Background(), nil, checkpoint.NewMemory(), &countingProjection{}, replay.Options{}); !errors.Is(err, replay.ErrEventSourceRequired) {
		t.Fatalf("expected source required, got %v", err)
	}
}
