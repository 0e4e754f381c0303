// Package requestctx carries caller identity through a command's context.
package requestctx

import "context"

// userIDContextKey is the context key for the initiating user.
type userIDContextKey struct{}

// WithUserID stores the identifier of the user issuing commands.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context, or "".
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDContextKey{}).(string)
	return value
}
