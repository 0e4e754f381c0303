package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/contentrepository/internal/platform/errors"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/dimension"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
)

const dimensionsYAML = `
dimensions:
  language:
    values:
      en:
        specializations:
          de: {}
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

const bootstrapCommands = `
# live workspace with one document
{"type":"CreateRootWorkspace","payload":{"workspaceName":"live","newContentStreamId":"cs-live"}}
{"type":"CreateRootNodeAggregateWithNode","payload":{"contentStreamId":"cs-live","nodeAggregateId":"sites","nodeTypeName":"Acme:Sites"},"userId":"admin"}
{"type":"CreateNodeAggregateWithNode","payload":{"contentStreamId":"cs-live","nodeAggregateId":"home","nodeTypeName":"Acme:Document","originDimensionSpacePoint":{"language":"en"},"parentNodeAggregateId":"sites","nodeName":"home"}}
{"type":"SetSerializedNodeProperties","payload":{"contentStreamId":"cs-live","nodeAggregateId":"missing","originDimensionSpacePoint":{"language":"en"},"propertyValues":{"title":{"value":"Home","type":"string"}}}}
`

func writeConfigFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dimensions := filepath.Join(dir, "dimensions.yaml")
	nodeTypes := filepath.Join(dir, "nodetypes.yaml")
	if err := os.WriteFile(dimensions, []byte(dimensionsYAML), 0o600); err != nil {
		t.Fatalf("write dimensions: %v", err)
	}
	if err := os.WriteFile(nodeTypes, []byte(schemaYAML), 0o600); err != nil {
		t.Fatalf("write node types: %v", err)
	}
	return dimensions, nodeTypes
}

func openRuntime(t *testing.T, cfg RuntimeConfig) *Runtime {
	t.Helper()
	runtime, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() {
		if err := runtime.Close(); err != nil {
			t.Fatalf("close runtime: %v", err)
		}
	})
	return runtime
}

func TestOpenRequiresConfigurationPaths(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	tests := []struct {
		name string
		cfg  RuntimeConfig
	}{
		{name: "missing dimensions", cfg: RuntimeConfig{NodeTypesPath: nodeTypes}},
		{name: "missing node types", cfg: RuntimeConfig{DimensionsPath: dimensions}},
		{name: "unreadable dimensions", cfg: RuntimeConfig{DimensionsPath: dimensions + ".missing", NodeTypesPath: nodeTypes}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyCommandsReportsLocalizedFailures(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	runtime := openRuntime(t, RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes})

	report, err := runtime.ApplyCommands(context.Background(), strings.NewReader(bootstrapCommands))
	if err != nil {
		t.Fatalf("apply commands: %v", err)
	}
	if report.Applied != 3 {
		t.Fatalf("applied = %d, want 3", report.Applied)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	failure := report.Failures[0]
	if failure.Line != 6 {
		t.Fatalf("failure line = %d, want 6", failure.Line)
	}
	if failure.Code != apperrors.CodeNodeAggregateCurrentlyDoesNotExist {
		t.Fatalf("failure code = %s, want %s", failure.Code, apperrors.CodeNodeAggregateCurrentlyDoesNotExist)
	}
	if failure.Message != "Node aggregate missing does not exist" {
		t.Fatalf("failure message = %q, want the en-US catalog text", failure.Message)
	}

	agg, err := runtime.Repository.ContentGraph().FindNodeAggregateByID("cs-live", "home")
	if err != nil {
		t.Fatalf("find home: %v", err)
	}
	if agg == nil {
		t.Fatal("expected home aggregate")
	}
	de := dimension.NewDimensionSpacePoint(map[string]string{"language": "de"})
	if !agg.CoveredDimensionSpacePoints().Contains(de) {
		t.Fatal("expected home to cover the de specialization")
	}

	records, err := runtime.Repository.EventStore().Load(context.Background(), event.ContentStreamStreamName("cs-live"), eventstore.NoVersion)
	if err != nil {
		t.Fatalf("load live stream: %v", err)
	}
	users := make([]string, 0, len(records))
	for _, record := range records {
		users = append(users, record.Metadata.InitiatingUserID)
	}
	if len(users) != 3 || users[1] != "admin" || users[2] != "" {
		t.Fatalf("initiating users = %q, want only the root creation by admin", users)
	}
}

func TestApplyCommandsUsesRequestedLocale(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	runtime := openRuntime(t, RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes, Locale: "de-DE"})

	input := `{"type":"CreateRootNodeAggregateWithNode","payload":{"contentStreamId":"cs-none","nodeAggregateId":"sites","nodeTypeName":"Acme:Sites"}}`
	report, err := runtime.ApplyCommands(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("apply commands: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	if got, want := report.Failures[0].Message, "Content-Stream cs-none existiert noch nicht"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestApplyCommandsRejectsMalformedLines(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	runtime := openRuntime(t, RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes})

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "{not json"},
		{name: "unknown type", input: `{"type":"LaunchRocket","payload":{}}`},
		{name: "bad payload", input: `{"type":"CreateRootWorkspace","payload":{"workspaceName":7}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runtime.ApplyCommands(context.Background(), strings.NewReader(tt.input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSQLiteEventsSurviveRestart(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	eventsPath := filepath.Join(t.TempDir(), "data", "events.db")
	cfg := RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes, EventsPath: eventsPath}

	first, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if _, err := first.ApplyCommands(context.Background(), strings.NewReader(bootstrapCommands)); err != nil {
		t.Fatalf("apply commands: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close runtime: %v", err)
	}

	second := openRuntime(t, cfg)
	ws, ok := second.Repository.Workspaces().FindByName("live")
	if !ok {
		t.Fatal("expected live workspace after restart")
	}
	if ws.ContentStreamID != "cs-live" {
		t.Fatalf("content stream = %s, want cs-live", ws.ContentStreamID)
	}
	agg, err := second.Repository.ContentGraph().FindNodeAggregateByID("cs-live", "home")
	if err != nil || agg == nil {
		t.Fatalf("find home after restart: %v", err)
	}
}

func TestRunPruneLoopRemovesDiscardedStreams(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	runtime := openRuntime(t, RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes})

	input := bootstrapCommands + `
{"type":"CreateWorkspace","payload":{"workspaceName":"user","baseWorkspaceName":"live","newContentStreamId":"cs-user"}}
{"type":"DiscardWorkspace","payload":{"workspaceName":"user","newContentStreamId":"cs-user-2"}}
`
	if _, err := runtime.ApplyCommands(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("apply commands: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runtime.RunPruneLoop(ctx, time.Hour)
		close(done)
	}()
	deadline := time.After(5 * time.Second)
	for {
		if _, found := runtime.Repository.ContentStreams().Find("cs-user"); !found {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("timed out waiting for prune")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	records, err := runtime.Repository.EventStore().Load(context.Background(), event.ContentStreamStreamName("cs-user"), eventstore.NoVersion)
	if err != nil {
		t.Fatalf("load pruned stream: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("pruned stream records = %d, want 0", len(records))
	}
}

func TestRunStopsWhenContextIsDone(t *testing.T) {
	dimensions, nodeTypes := writeConfigFiles(t)
	commands := filepath.Join(t.TempDir(), "commands.jsonl")
	if err := os.WriteFile(commands, []byte(bootstrapCommands), 0o600); err != nil {
		t.Fatalf("write commands: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, RuntimeConfig{DimensionsPath: dimensions, NodeTypesPath: nodeTypes, CommandsPath: commands})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}
