package contentstream

import (
	"sort"
	"sync"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// ProjectionName is the checkpoint name of the content stream finder.
const ProjectionName = "contentstream"

// Finder projects content stream states. It implements replay.Projection.
type Finder struct {
	mu      sync.RWMutex
	streams map[node.ContentStreamID]State
	lastSeq uint64
}

// NewFinder creates an empty finder.
func NewFinder() *Finder {
	return &Finder{streams: make(map[node.ContentStreamID]State)}
}

// Name returns the checkpoint name.
func (f *Finder) Name() string { return ProjectionName }

// Reset drops all state.
func (f *Finder) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams = make(map[node.ContentStreamID]State)
	f.lastSeq = 0
}

// Apply folds one committed record. Records at or below the last applied
// sequence are ignored.
func (f *Finder) Apply(record eventstore.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.Sequence != 0 && record.Sequence <= f.lastSeq {
		return nil
	}
	for _, state := range fold(f.lookup, record.Event) {
		if state.ID == "" {
			continue
		}
		f.streams[state.ID] = state
	}
	if id, ok := record.StreamName.ContentStreamID(); ok {
		if state, known := f.streams[id]; known && record.Version > state.Version {
			state.Version = record.Version
			f.streams[id] = state
		}
	}
	if record.Sequence > f.lastSeq {
		f.lastSeq = record.Sequence
	}
	return nil
}

func (f *Finder) lookup(id node.ContentStreamID) State {
	return f.streams[id]
}

// Find returns the state of id. Removed streams are still returned.
func (f *Finder) Find(id node.ContentStreamID) (State, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	state, ok := f.streams[id]
	return state, ok
}

// HasContentStream reports whether id exists and was not removed.
func (f *Finder) HasContentStream(id node.ContentStreamID) bool {
	state, ok := f.Find(id)
	return ok && !state.Removed
}

// Version returns the version of the last event on id.
func (f *Finder) Version(id node.ContentStreamID) (int64, bool) {
	state, ok := f.Find(id)
	if !ok || state.Removed {
		return eventstore.NoVersion, false
	}
	return state.Version, true
}

// FindUnusedContentStreams returns the streams no workspace points at that
// were not removed yet.
func (f *Finder) FindUnusedContentStreams() []node.ContentStreamID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []node.ContentStreamID
	for id, state := range f.streams {
		if state.IsUnused() {
			out = append(out, id)
		}
	}
	return sortIDs(out)
}

// FindUnusedAndRemovedContentStreams returns removed streams whose events no
// live stream still replays through its fork lineage.
func (f *Finder) FindUnusedAndRemovedContentStreams() []node.ContentStreamID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	needed := map[node.ContentStreamID]bool{}
	for id, state := range f.streams {
		if state.Removed {
			continue
		}
		visited := map[node.ContentStreamID]bool{id: true}
		for source := state.SourceID; source != "" && !visited[source]; {
			visited[source] = true
			needed[source] = true
			source = f.streams[source].SourceID
		}
	}

	var out []node.ContentStreamID
	for id, state := range f.streams {
		if state.Removed && !needed[id] {
			out = append(out, id)
		}
	}
	return sortIDs(out)
}

// Forget drops a stream whose events were deleted from the event store.
func (f *Finder) Forget(id node.ContentStreamID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.streams, id)
}

func sortIDs(ids []node.ContentStreamID) []node.ContentStreamID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
