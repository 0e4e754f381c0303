package pruner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/command"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/engine"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/node"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/nodetype"
)

const dimensionsYAML = `
dimensions:
  language:
    values:
      en: {}
`

const schemaYAML = `
'Acme:Sites':
  superTypes:
    'ContentRepository:Root': true
  constraints:
    nodeTypes:
      '*': true
'Acme:Document':
  properties:
    title:
      type: string
`

var en = dimension.NewDimensionSpacePoint(map[string]string{"language": "en"})

func newRepository(t *testing.T, store eventstore.Store) *engine.ContentRepository {
	t.Helper()
	source, err := dimension.LoadSource(strings.NewReader(dimensionsYAML))
	if err != nil {
		t.Fatalf("load dimensions: %v", err)
	}
	manager, err := nodetype.LoadManager(strings.NewReader(schemaYAML))
	if err != nil {
		t.Fatalf("load node types: %v", err)
	}
	repo, err := engine.New(context.Background(), engine.Config{Store: store, Dimensions: source, NodeTypes: manager})
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func mustHandle(t *testing.T, repo *engine.ContentRepository, cmds ...command.Command) {
	t.Helper()
	for _, cmd := range cmds {
		if _, err := repo.Handle(context.Background(), cmd); err != nil {
			t.Fatalf("%s: %v", cmd.CommandType(), err)
		}
	}
}

// setup publishes the user workspace once, leaving cs-user unused while the
// review workspace still builds on a fork of it.
func setup(t *testing.T) (*engine.ContentRepository, *eventstore.Memory) {
	t.Helper()
	store := eventstore.NewMemory()
	repo := newRepository(t, store)
	mustHandle(t, repo,
		command.CreateRootWorkspace{WorkspaceName: "live", NewContentStreamID: "cs-live"},
		command.CreateRootNodeAggregateWithNode{ContentStreamID: "cs-live", NodeAggregateID: "sites", NodeTypeName: "Acme:Sites"},
		command.CreateWorkspace{WorkspaceName: "user", BaseWorkspaceName: "live", NewContentStreamID: "cs-user"},
		command.CreateNodeAggregateWithNode{
			ContentStreamID:           "cs-user",
			NodeAggregateID:           "doc",
			NodeTypeName:              "Acme:Document",
			OriginDimensionSpacePoint: en.AsOrigin(),
			ParentNodeAggregateID:     "sites",
			NodeName:                  "doc",
		},
		command.CreateWorkspace{WorkspaceName: "review", BaseWorkspaceName: "user", NewContentStreamID: "cs-review"},
		command.PublishWorkspace{WorkspaceName: "user", NewContentStreamID: "cs-user-2"},
	)
	return repo, store
}

func equalIDs(got, want []node.ContentStreamID) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewRequiresCollaborators(t *testing.T) {
	repo, _ := setup(t)
	if _, err := New(nil, repo.ContentStreams(), repo.EventStore(), nil); !errors.Is(err, ErrCommandHandlerRequired) {
		t.Fatalf("expected ErrCommandHandlerRequired, got %v", err)
	}
	if _, err := New(repo, nil, repo.EventStore(), nil); !errors.Is(err, ErrStreamFinderRequired) {
		t.Fatalf("expected ErrStreamFinderRequired, got %v", err)
	}
	if _, err := New(repo, repo.ContentStreams(), nil, nil); !errors.Is(err, ErrStreamDeleterRequired) {
		t.Fatalf("expected ErrStreamDeleterRequired, got %v", err)
	}
	if _, err := ForRepository(nil, nil); !errors.Is(err, ErrCommandHandlerRequired) {
		t.Fatalf("expected ErrCommandHandlerRequired, got %v", err)
	}
}

func TestPruneRemovesUnusedStreamsFromReadModels(t *testing.T) {
	repo, store := setup(t)
	p, err := ForRepository(repo, nil)
	if err != nil {
		t.Fatalf("new pruner: %v", err)
	}

	removed, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !equalIDs(removed, []node.ContentStreamID{"cs-user"}) {
		t.Fatalf("removed = %v", removed)
	}
	state, ok := repo.ContentStreams().Find("cs-user")
	if !ok || !state.Removed {
		t.Fatalf("cs-user state = %+v", state)
	}
	if repo.ContentGraph().HasContentStream("cs-user") {
		t.Fatal("expected the graph of cs-user to be dropped")
	}
	version, err := store.StreamVersion(context.Background(), event.ContentStreamStreamName("cs-user"))
	if err != nil || version == eventstore.NoVersion {
		t.Fatalf("expected cs-user events to stay, version = %d, err = %v", version, err)
	}

	again, err := p.Prune(context.Background())
	if err != nil || len(again) != 0 {
		t.Fatalf("second prune = %v, %v", again, err)
	}
}

func TestPruneRemovedFromEventStreamKeepsForkSources(t *testing.T) {
	repo, store := setup(t)
	p, err := ForRepository(repo, nil)
	if err != nil {
		t.Fatalf("new pruner: %v", err)
	}
	if _, err := p.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	deleted, err := p.PruneRemovedFromEventStream(context.Background())
	if err != nil {
		t.Fatalf("prune event stream: %v", err)
	}
	if len(deleted) != 0 {
		t.Fatalf("cs-user is the source of cs-review, deleted = %v", deleted)
	}

	mustHandle(t, repo, command.DiscardWorkspace{WorkspaceName: "review", NewContentStreamID: "cs-review-2"})
	if _, err := p.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	deleted, err = p.PruneRemovedFromEventStream(context.Background())
	if err != nil {
		t.Fatalf("prune event stream: %v", err)
	}
	if !equalIDs(deleted, []node.ContentStreamID{"cs-review", "cs-user"}) {
		t.Fatalf("deleted = %v", deleted)
	}
	for _, id := range deleted {
		version, err := store.StreamVersion(context.Background(), event.ContentStreamStreamName(id))
		if err != nil || version != eventstore.NoVersion {
			t.Fatalf("%s version = %d, err = %v", id, version, err)
		}
		if _, ok := repo.ContentStreams().Find(id); ok {
			t.Fatalf("%s is still projected", id)
		}
	}

	if err := repo.ReplayProjections(context.Background()); err != nil {
		t.Fatalf("replay after prune: %v", err)
	}
	if _, ok := repo.Workspaces().FindByName("review"); !ok {
		t.Fatal("expected review to survive the replay")
	}
	agg, err := repo.ContentGraph().FindNodeAggregateByID("cs-live", "doc")
	if err != nil || agg == nil {
		t.Fatalf("expected doc in live after replay, got %v %v", agg, err)
	}
}
