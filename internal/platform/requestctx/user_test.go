package requestctx

import (
	"context"
	"testing"
)

func TestUserIDFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "stored", ctx: WithUserID(context.Background(), "editor-7"), want: "editor-7"},
		{name: "absent", ctx: context.Background(), want: ""},
		{name: "nil", ctx: nil, want: ""},
		{name: "nil parent", ctx: WithUserID(nil, "editor-8"), want: "editor-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserIDFromContext(tt.ctx); got != tt.want {
				t.Fatalf("UserIDFromContext = %q, want %q", got, tt.want)
			}
		})
	}
}
