// Package timeouts defines shared timeout constants used across the process.
// Centralizing these values keeps the durations discoverable.
package timeouts

import "time"

// Shutdown limits how long telemetry exporters may flush during shutdown.
const Shutdown = 5 * time.Second

// PrunePass caps one content stream prune pass, including event deletion.
const PrunePass = 30 * time.Second
