package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/contentrepository/internal/platform/otel"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name string
		cfg  otel.Config
	}{
		{name: "noop without endpoint", cfg: otel.Config{}},
		{name: "noop when disabled", cfg: otel.Config{Endpoint: "http://localhost:4318", Enabled: "false"}},
		// Non-routable address so nothing is exported.
		{name: "provider with endpoint", cfg: otel.Config{Endpoint: "http://192.0.2.1:4318"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := otel.Setup(context.Background(), "contentrepo-test", tt.cfg)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}
