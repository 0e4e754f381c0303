// Package main starts the content repository process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	contentrepocmd "github.com/louisbranch/contentrepository/internal/cmd/contentrepo"
	"github.com/louisbranch/contentrepository/internal/platform/config"
)

func main() {
	cfg, err := contentrepocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := contentrepocmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to run: %v", err)
	}
}
