package eventstore

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

func created(id node.ContentStreamID) Pending {
	return Pending{Event: event.ContentStreamWasCreated{ContentStreamID: id}}
}

func renamed(cs node.ContentStreamID, name node.NodeName) Pending {
	return Pending{Event: event.NodeAggregateNameWasChanged{ContentStreamID: cs, NodeAggregateID: "n", NewNodeName: name}}
}

func forked(id, source node.ContentStreamID, version int64) Pending {
	return Pending{Event: event.ContentStreamWasForked{NewContentStreamID: id, SourceContentStreamID: source, VersionOfSourceContentStream: version}}
}

func TestExpectedVersionMatches(t *testing.T) {
	tests := []struct {
		name     string
		expected ExpectedVersion
		current  int64
		want     bool
	}{
		{name: "any on empty", expected: Any(), current: NoVersion, want: true},
		{name: "any on existing", expected: Any(), current: 4, want: true},
		{name: "no stream on empty", expected: NoStream(), current: NoVersion, want: true},
		{name: "no stream on existing", expected: NoStream(), current: 0},
		{name: "exactly match", expected: Exactly(2), current: 2, want: true},
		{name: "exactly mismatch", expected: Exactly(2), current: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expected.Matches(tt.current); got != tt.want {
				t.Fatalf("Matches(%d) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestMemoryCommitAssignsVersionsAndSequences(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	stream := event.ContentStreamStreamName("cs-1")

	result, err := store.Commit(ctx, stream, []Pending{created("cs-1"), renamed("cs-1", "a")}, NoStream())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Version != 1 || result.Sequence != 2 {
		t.Fatalf("result = %+v", result)
	}
	if result.Records[0].Version != 0 {
		t.Fatalf("first version = %d, want 0", result.Records[0].Version)
	}

	other := event.ContentStreamStreamName("cs-2")
	if _, err := store.Commit(ctx, other, []Pending{created("cs-2")}, NoStream()); err != nil {
		t.Fatalf("commit other: %v", err)
	}

	all, err := store.LoadAll(ctx, 1, 0)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 2 || all[0].Sequence != 2 || all[1].StreamName != other {
		t.Fatalf("all = %+v", all)
	}

	tail, err := store.Load(ctx, stream, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tail) != 1 || tail[0].Event.(event.NodeAggregateNameWasChanged).NewNodeName != "a" {
		t.Fatalf("tail = %+v", tail)
	}
}

func TestMemoryCommitRejectsVersionMismatchAtomically(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	stream := event.ContentStreamStreamName("cs-1")
	if _, err := store.Commit(ctx, stream, []Pending{created("cs-1")}, NoStream()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, err := store.Commit(ctx, stream, []Pending{renamed("cs-1", "a"), renamed("cs-1", "b")}, Exactly(5))
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	if got := apperrors.GetMetadata(err)["ActualVersion"]; got != "0" {
		t.Fatalf("actual version metadata = %q", got)
	}
	version, err := store.StreamVersion(ctx, stream)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 0 {
		t.Fatalf("version = %d, want 0", version)
	}
	if _, err := store.Commit(ctx, stream, []Pending{created("cs-1")}, NoStream()); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected no-stream conflict, got %v", err)
	}
}

func TestMemoryDeleteStream(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	stream := event.ContentStreamStreamName("cs-1")
	if _, err := store.Commit(ctx, stream, []Pending{created("cs-1")}, Any()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.DeleteStream(ctx, stream); err != nil {
		t.Fatalf("delete: %v", err)
	}
	version, _ := store.StreamVersion(ctx, stream)
	if version != NoVersion {
		t.Fatalf("version = %d", version)
	}
	all, _ := store.LoadAll(ctx, 0, 0)
	if len(all) != 0 {
		t.Fatalf("all = %+v", all)
	}
	result, err := store.Commit(ctx, event.ContentStreamStreamName("cs-2"), []Pending{created("cs-2")}, Any())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Sequence != 2 {
		t.Fatalf("sequence = %d, want 2", result.Sequence)
	}
}

func TestWithCommandMetadataKeepsHandlerMetadata(t *testing.T) {
	batch := NewEventsToPublish("ContentStream:cs", Any(), event.ContentStreamWasCreated{ContentStreamID: "cs"})
	attached := batch.WithCommandMetadata(event.Metadata{CommandType: "CreateContentStream"})
	if attached.Events[0].Metadata.CommandType != "CreateContentStream" {
		t.Fatalf("metadata = %+v", attached.Events[0].Metadata)
	}
	if !batch.Events[0].Metadata.IsZero() {
		t.Fatal("original batch must not change")
	}
	again := attached.WithCommandMetadata(event.Metadata{CommandType: "Other"})
	if again.Events[0].Metadata.CommandType != "CreateContentStream" {
		t.Fatalf("metadata = %+v", again.Events[0].Metadata)
	}
}

func TestLoadWithAncestry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := event.ContentStreamStreamName("base")
	if _, err := store.Commit(ctx, base, []Pending{created("base"), renamed("base", "a")}, NoStream()); err != nil {
		t.Fatalf("commit base: %v", err)
	}
	if _, err := store.Commit(ctx, event.ContentStreamStreamName("child"), []Pending{forked("child", "base", 1), renamed("child", "c")}, NoStream()); err != nil {
		t.Fatalf("commit child: %v", err)
	}
	// Written after the fork; must not leak into the child history.
	if _, err := store.Commit(ctx, base, []Pending{renamed("base", "b")}, Exactly(1)); err != nil {
		t.Fatalf("commit base: %v", err)
	}

	history, err := LoadWithAncestry(ctx, store, "child")
	if err != nil {
		t.Fatalf("ancestry: %v", err)
	}
	var types []event.Type
	for _, record := range history {
		types = append(types, record.Type)
	}
	want := []event.Type{
		event.TypeContentStreamWasCreated,
		event.TypeNodeAggregateNameWasChanged,
		event.TypeContentStreamWasForked,
		event.TypeNodeAggregateNameWasChanged,
	}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
	if history[3].Event.(event.NodeAggregateNameWasChanged).NewNodeName != "c" {
		t.Fatalf("last = %+v", history[3].Event)
	}

	own, err := OwnRecords(ctx, store, "child")
	if err != nil {
		t.Fatalf("own: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("own = %+v", own)
	}
}

func TestLoadWithAncestryDetectsCycles(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.Commit(ctx, event.ContentStreamStreamName("a"), []Pending{forked("a", "b", 0)}, NoStream()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := store.Commit(ctx, event.ContentStreamStreamName("b"), []Pending{forked("b", "a", 0)}, NoStream()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := LoadWithAncestry(ctx, store, "a"); !apperrors.IsCode(err, apperrors.CodeContentStreamLineageIsCorrupted) {
		t.Fatalf("expected lineage corruption, got %v", err)
	}
}
