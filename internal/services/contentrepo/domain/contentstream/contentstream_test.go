package contentstream

import (
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// feed applies events as consecutive records of their own streams.
func feed(t *testing.T, f *Finder, events ...event.Event) {
	t.Helper()
	versions := map[event.StreamName]int64{}
	for _, evt := range events {
		stream := event.StreamName("$other")
		if cse, ok := evt.(event.ContentStreamEvent); ok {
			stream = event.ContentStreamStreamName(cse.StreamID())
		}
		version, ok := versions[stream]
		if !ok {
			version = -1
			if id, isCS := stream.ContentStreamID(); isCS {
				if state, known := f.Find(id); known {
					version = state.Version
				}
			}
		}
		version++
		versions[stream] = version
		if err := f.Apply(eventstore.Record{Sequence: f.lastSeq + 1, StreamName: stream, Version: version, Event: evt}); err != nil {
			t.Fatalf("apply %s: %v", evt.EventType(), err)
		}
	}
}

func TestFinderTracksLifecycle(t *testing.T) {
	f := NewFinder()
	feed(t, f,
		event.ContentStreamWasCreated{ContentStreamID: "live-1"},
		event.RootWorkspaceWasCreated{WorkspaceName: "live", NewContentStreamID: "live-1"},
		event.ContentStreamWasForked{NewContentStreamID: "user-1", SourceContentStreamID: "live-1", VersionOfSourceContentStream: 0},
		event.WorkspaceWasCreated{WorkspaceName: "user", BaseWorkspaceName: "live", NewContentStreamID: "user-1"},
		event.ContentStreamWasForked{NewContentStreamID: "user-2", SourceContentStreamID: "live-1", VersionOfSourceContentStream: 0},
		event.WorkspaceWasDiscarded{WorkspaceName: "user", NewContentStreamID: "user-2", PreviousContentStreamID: "user-1"},
	)

	tests := []struct {
		id     node.ContentStreamID
		status Status
	}{
		{id: "live-1", status: StatusInUseByWorkspace},
		{id: "user-1", status: StatusNoLongerInUse},
		{id: "user-2", status: StatusInUseByWorkspace},
	}
	for _, tt := range tests {
		state, ok := f.Find(tt.id)
		if !ok {
			t.Fatalf("expected %s", tt.id)
		}
		if state.Status != tt.status {
			t.Fatalf("%s status = %s, want %s", tt.id, state.Status, tt.status)
		}
	}

	user2, _ := f.Find("user-2")
	if user2.SourceID != "live-1" || user2.Version != 0 {
		t.Fatalf("user-2 = %+v", user2)
	}
	if got := f.FindUnusedContentStreams(); !reflect.DeepEqual(got, []node.ContentStreamID{"user-1"}) {
		t.Fatalf("unused = %v", got)
	}
}

func TestRebaseFailureMarksCandidate(t *testing.T) {
	f := NewFinder()
	feed(t, f,
		event.ContentStreamWasCreated{ContentStreamID: "a"},
		event.ContentStreamWasForked{NewContentStreamID: "b", SourceContentStreamID: "a"},
		event.WorkspaceRebaseFailed{WorkspaceName: "user", CandidateContentStreamID: "b", PreviousContentStreamID: "a"},
	)
	state, _ := f.Find("b")
	if state.Status != StatusRebaseError || !state.IsUnused() {
		t.Fatalf("b = %+v", state)
	}
}

func TestRemovedStreamsKeptWhileAncestorOfLiveStream(t *testing.T) {
	f := NewFinder()
	feed(t, f,
		event.ContentStreamWasCreated{ContentStreamID: "a"},
		event.ContentStreamWasForked{NewContentStreamID: "b", SourceContentStreamID: "a"},
		event.ContentStreamWasForked{NewContentStreamID: "c", SourceContentStreamID: "b"},
		event.ContentStreamWasRemoved{ContentStreamID: "a"},
		event.ContentStreamWasRemoved{ContentStreamID: "b"},
	)
	if got := f.FindUnusedAndRemovedContentStreams(); len(got) != 0 {
		t.Fatalf("expected lineage of c to be kept, got %v", got)
	}

	feed(t, f, event.ContentStreamWasRemoved{ContentStreamID: "c"})
	got := f.FindUnusedAndRemovedContentStreams()
	if !reflect.DeepEqual(got, []node.ContentStreamID{"a", "b", "c"}) {
		t.Fatalf("removed = %v", got)
	}
	if f.HasContentStream("c") {
		t.Fatal("removed stream must not count as existing")
	}
	f.Forget("c")
	if _, ok := f.Find("c"); ok {
		t.Fatal("expected c to be forgotten")
	}
}

func TestFinderIgnoresReplayedSequences(t *testing.T) {
	f := NewFinder()
	feed(t, f, event.ContentStreamWasCreated{ContentStreamID: "a"})
	if err := f.Apply(eventstore.Record{Sequence: 1, StreamName: "ContentStream:a", Event: event.ContentStreamWasClosed{ContentStreamID: "a"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if state, _ := f.Find("a"); state.IsClosed() {
		t.Fatal("expected replayed record to be ignored")
	}
	f.Reset()
	if f.HasContentStream("a") {
		t.Fatal("expected reset to drop state")
	}
}

func TestHandlerDecisions(t *testing.T) {
	f := NewFinder()
	feed(t, f,
		event.ContentStreamWasCreated{ContentStreamID: "a"},
		event.ContentStreamWasCreated{ContentStreamID: "closed"},
		event.ContentStreamWasClosed{ContentStreamID: "closed"},
	)
	h := NewHandler(f)

	created, err := h.HandleCreate(command.CreateContentStream{ContentStreamID: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.StreamName != "ContentStream:b" || created.ExpectedVersion != eventstore.NoStream() {
		t.Fatalf("create batch = %+v", created)
	}

	forked, err := h.HandleFork(command.ForkContentStream{NewContentStreamID: "c", SourceContentStreamID: "a"})
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	fork := forked.Events[0].Event.(event.ContentStreamWasForked)
	if fork.VersionOfSourceContentStream != 0 {
		t.Fatalf("source version = %d", fork.VersionOfSourceContentStream)
	}

	closed, err := h.HandleClose(command.CloseContentStream{ContentStreamID: "a"})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ExpectedVersion != eventstore.Exactly(0) {
		t.Fatalf("close expected version = %s", closed.ExpectedVersion)
	}

	failures := []struct {
		name string
		run  func() error
		code apperrors.Code
	}{
		{
			name: "create existing",
			run: func() error {
				_, err := h.HandleCreate(command.CreateContentStream{ContentStreamID: "a"})
				return err
			},
			code: apperrors.CodeContentStreamAlreadyExists,
		},
		{
			name: "fork missing source",
			run: func() error {
				_, err := h.HandleFork(command.ForkContentStream{NewContentStreamID: "x", SourceContentStreamID: "missing"})
				return err
			},
			code: apperrors.CodeContentStreamDoesNotExistYet,
		},
		{
			name: "close closed",
			run: func() error {
				_, err := h.HandleClose(command.CloseContentStream{ContentStreamID: "closed"})
				return err
			},
			code: apperrors.CodeContentStreamIsClosed,
		},
		{
			name: "remove missing",
			run: func() error {
				_, err := h.HandleRemove(command.RemoveContentStream{ContentStreamID: "missing"})
				return err
			},
			code: apperrors.CodeContentStreamDoesNotExistYet,
		},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !apperrors.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}
