package contentrepo

import (
	"context"
	"flag"
	"io"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("contentrepo", flag.ContinueOnError)
	t.Setenv("CONTENTREPO_EVENTS_PATH", "data/events.db")
	t.Setenv("CONTENTREPO_OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := ParseConfig(fs, []string{"-prune-interval", "30s", "-locale", "de-DE"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.EventsPath != "data/events.db" {
		t.Fatalf("events path = %q, want %q", cfg.EventsPath, "data/events.db")
	}
	if cfg.Tracing.Endpoint != "http://collector:4318" {
		t.Fatalf("otel endpoint = %q, want %q", cfg.Tracing.Endpoint, "http://collector:4318")
	}
	if cfg.PruneInterval != 30*time.Second {
		t.Fatalf("prune interval = %s, want 30s", cfg.PruneInterval)
	}
	if cfg.Locale != "de-DE" {
		t.Fatalf("locale = %q, want %q", cfg.Locale, "de-DE")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("contentrepo", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DimensionsPath != "config/dimensions.yaml" {
		t.Fatalf("dimensions path = %q", cfg.DimensionsPath)
	}
	if cfg.NodeTypesPath != "config/nodetypes.yaml" {
		t.Fatalf("node types path = %q", cfg.NodeTypesPath)
	}
	if cfg.EventsPath != "" {
		t.Fatalf("events path = %q, want empty", cfg.EventsPath)
	}
	if cfg.PruneInterval != 5*time.Minute {
		t.Fatalf("prune interval = %s, want 5m", cfg.PruneInterval)
	}
}

func TestParseConfig_RejectsUnknownFlags(t *testing.T) {
	fs := flag.NewFlagSet("contentrepo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	if _, err := ParseConfig(fs, []string{"-port", "80"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_FailsWithoutConfigurationFiles(t *testing.T) {
	cfg := Config{
		DimensionsPath: t.TempDir() + "/missing.yaml",
		NodeTypesPath:  t.TempDir() + "/missing.yaml",
		LogMode:        "production",
	}
	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error")
	}
}
