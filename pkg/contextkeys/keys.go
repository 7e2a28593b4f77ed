// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//   import "github.com/confide/confide/pkg/contextkeys"
//   ctx = contextkeys.WithIdentity(ctx, user)
//   user := ctx.Value(contextkeys.IdentityKey).(*identity.Identity)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *identity.Identity
	// Set by: middleware.SessionMiddleware (pkg/middleware/auth.go)
	// Required by: All session-protected endpoints
	// Type: *identity.Identity
	IdentityKey Key = "identity"

	// SessionTokenKey contains the raw session token string
	// Set by: middleware.SessionMiddleware
	// Used by: Logout handler to revoke the current session
	// Type: string
	SessionTokenKey Key = "session_token"

	// RequestIDKey contains request ID string (UUID)
	// Set by: HTTP middleware, observability layer
	// Used by: Logger, distributed tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: Observability middleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// Helper functions for type-safe context operations

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, user)
}

// WithSessionToken adds the raw session token to the context
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetSessionToken retrieves the raw session token from context
func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
