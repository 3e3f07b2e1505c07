// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without running the full HTTP chain.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	platformKey    struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyPlatform    = platformKey{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Platform retrieves the caller platform label ("web", "mobile", "bot")
// derived from the User-Agent by middleware. Used for metrics only.
func Platform(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyPlatform).(string); ok {
		return p
	}
	return ""
}

// WithPlatform injects a caller platform label into the context.
func WithPlatform(ctx context.Context, platform string) context.Context {
	return context.WithValue(ctx, ContextKeyPlatform, platform)
}

// Now retrieves the request-scoped time from context. Falls back to time.Now()
// for non-HTTP contexts like workers and CLI commands.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that assert on audit timestamps and reopen-window arithmetic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
