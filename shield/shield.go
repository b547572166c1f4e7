// Package shield provides the HTTP hardening middleware for the triage
// API: security headers, request body limits, per-request logging with a
// request ID, and per-IP rate limiting backed by a SQLite rules table.
//
// Usage:
//
//	r := chi.NewRouter()
//	rl := shield.NewRateLimiter(db, "/health")
//	for _, mw := range shield.APIStack(rl) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "shield_request_id"

	// LoggerKey is the context key for the per-request structured logger.
	LoggerKey contextKey = "shield_logger"
)

// APIStack returns the standard middleware stack for the triage API.
// Ordered: SecurityHeaders → MaxJSONBody → RequestID → RateLimiter.
func APIStack(rl *RateLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(DefaultHeaders()),
		MaxJSONBody(4 << 20),
		RequestID,
		rl.Middleware,
	}
}

// GetRequestID retrieves the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
