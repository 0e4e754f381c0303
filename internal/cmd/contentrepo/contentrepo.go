// Package contentrepo parses content repository command flags and launches
// the runtime.
package contentrepo

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/contentrepository/internal/platform/cmd"
	"github.com/louisbranch/contentrepository/internal/platform/logging"
	"github.com/louisbranch/contentrepository/internal/platform/otel"
	contentrepoapp "github.com/louisbranch/contentrepository/internal/services/contentrepo/app"
)

// Config holds content repository command configuration.
type Config struct {
	DimensionsPath string        `env:"CONTENTREPO_DIMENSIONS_PATH" envDefault:"config/dimensions.yaml"`
	NodeTypesPath  string        `env:"CONTENTREPO_NODETYPES_PATH" envDefault:"config/nodetypes.yaml"`
	EventsPath     string        `env:"CONTENTREPO_EVENTS_PATH"`
	CommandsPath   string        `env:"CONTENTREPO_COMMANDS_PATH"`
	PruneInterval  time.Duration `env:"CONTENTREPO_PRUNE_INTERVAL" envDefault:"5m"`
	Locale         string        `env:"CONTENTREPO_LOCALE" envDefault:"en-US"`
	LogMode        string        `env:"CONTENTREPO_LOG_MODE" envDefault:"development"`
	Tracing        otel.Config   `envPrefix:"CONTENTREPO_"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DimensionsPath, "dimensions", cfg.DimensionsPath, "Content dimension YAML path")
	fs.StringVar(&cfg.NodeTypesPath, "nodetypes", cfg.NodeTypesPath, "Node type schema YAML path")
	fs.StringVar(&cfg.EventsPath, "events", cfg.EventsPath, "SQLite event store path; empty keeps events in memory")
	fs.StringVar(&cfg.CommandsPath, "commands", cfg.CommandsPath, "JSON lines file of commands applied at startup")
	fs.DurationVar(&cfg.PruneInterval, "prune-interval", cfg.PruneInterval, "Content stream prune interval")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale of reported error messages")
	fs.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "Logger mode (development or production)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the content repository runtime.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger = logger.With("service", entrypoint.ServiceContentRepo)

	options := entrypoint.RunOptions{Tracing: cfg.Tracing, Logger: logger}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceContentRepo, options, func(ctx context.Context) error {
		return contentrepoapp.Run(ctx, contentrepoapp.RuntimeConfig{
			DimensionsPath: cfg.DimensionsPath,
			NodeTypesPath:  cfg.NodeTypesPath,
			EventsPath:     cfg.EventsPath,
			CommandsPath:   cfg.CommandsPath,
			PruneInterval:  cfg.PruneInterval,
			Locale:         cfg.Locale,
			Logger:         logger,
		})
	})
}
