// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here so that key
// usage stays discoverable and typo-proof.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// IdentityKey contains *auth.Identity.
	// Set by: middleware.Gate after resolving the session cookie.
	// Read by: handlers and the storage visibility filter.
	IdentityKey Key = "identity"

	// RequestIDKey contains the request ID string (UUID).
	// Set by: httputil.RequestIDMiddleware.
	// Read by: logger, error responses.
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger.
	LoggerKey Key = "logger"
)

// WithIdentity adds the caller identity to the context. The value is stored
// as interface{} to avoid an import cycle; auth.IdentityFromContext performs
// the typed read.
func WithIdentity(ctx context.Context, id interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// WithRequestID adds the request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
