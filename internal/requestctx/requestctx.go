// Package requestctx carries the request correlation ID through the
// context so layers below the router can tag logs and responses.
package requestctx

import "context"

type contextKey struct{ name string }

var requestIDKey = &contextKey{"request-id"}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the correlation ID stored on ctx, or "" for a
// context that never passed through the request-ID middleware.
func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}
