package workspace

import (
	"sort"
	"sync"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/contentstream"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
)

// ProjectionName is the checkpoint name of the workspace finder.
const ProjectionName = "workspace"

// StreamFinder resolves content stream states for status computation.
type StreamFinder interface {
	Find(id node.ContentStreamID) (contentstream.State, bool)
}

// Finder projects workspaces. It implements replay.Projection. Status is
// derived at read time from the content stream states.
type Finder struct {
	streams StreamFinder

	mu         sync.RWMutex
	workspaces map[node.WorkspaceName]Workspace
	lastSeq    uint64
}

// NewFinder creates an empty finder resolving statuses through streams.
func NewFinder(streams StreamFinder) *Finder {
	return &Finder{streams: streams, workspaces: make(map[node.WorkspaceName]Workspace)}
}

// Name returns the checkpoint name.
func (f *Finder) Name() string { return ProjectionName }

// Reset drops all state.
func (f *Finder) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workspaces = make(map[node.WorkspaceName]Workspace)
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
	if name, ok := workspaceName(record.Event); ok {
		state, known := f.workspaces[name]
		if !known {
			state.Version = eventstore.NoVersion
		}
		state = Fold(state, record.Event)
		if stream, isWorkspace := record.StreamName.WorkspaceName(); isWorkspace && stream == name && record.Version > state.Version {
			state.Version = record.Version
		}
		f.workspaces[name] = state
	}
	if record.Sequence > f.lastSeq {
		f.lastSeq = record.Sequence
	}
	return nil
}

// FindByName returns the workspace called name.
func (f *Finder) FindByName(name node.WorkspaceName) (Workspace, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ws, ok := f.workspaces[name]
	if !ok {
		return Workspace{}, false
	}
	return f.withStatus(ws), true
}

// FindByContentStreamID returns the workspace currently on id.
func (f *Finder) FindByContentStreamID(id node.ContentStreamID) (Workspace, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ws := range f.workspaces {
		if ws.ContentStreamID == id {
			return f.withStatus(ws), true
		}
	}
	return Workspace{}, false
}

// FindDependents returns the workspaces based on name, ordered by name.
func (f *Finder) FindDependents(name node.WorkspaceName) []Workspace {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Workspace
	for _, ws := range f.workspaces {
		if ws.BaseName == name {
			out = append(out, f.withStatus(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindAll returns every workspace ordered by name.
func (f *Finder) FindAll() []Workspace {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Workspace, 0, len(f.workspaces))
	for _, ws := range f.workspaces {
		out = append(out, f.withStatus(ws))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// withStatus derives the status: a workspace is outdated when its stream was
// not forked from the tip of the base workspace's current stream.
func (f *Finder) withStatus(ws Workspace) Workspace {
	ws.Status = StatusUpToDate
	if ws.IsRoot() || f.streams == nil {
		return ws
	}
	if ws.Conflicted {
		ws.Status = StatusOutdatedConflict
		return ws
	}
	base, ok := f.workspaces[ws.BaseName]
	if !ok {
		return ws
	}
	own, ok := f.streams.Find(ws.ContentStreamID)
	if !ok {
		return ws
	}
	baseStream, ok := f.streams.Find(base.ContentStreamID)
	if !ok {
		return ws
	}
	if own.SourceID != base.ContentStreamID || own.SourceVersion < baseStream.Version {
		ws.Status = StatusOutdated
	}
	return ws
}
