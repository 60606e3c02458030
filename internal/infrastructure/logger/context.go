package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

// Context keys for the request-scoped logger and the correlation values
// the HTTP layer assigns.
const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// WithContext attaches the logger to the context.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger so callers
// never need a nil check.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// tagged stores value under key and attaches a logger that carries the
// same value as a field on every entry.
func tagged(ctx context.Context, logger *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	l := logger.With(zap.String(string(key), value))
	return WithContext(ctx, l), l
}

// WithRequestID stores the correlation ID and returns a logger tagged with it.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return tagged(ctx, logger, RequestIDKey, requestID)
}

// WithUserID stores the user and returns a logger tagged with it.
func WithUserID(ctx context.Context, logger *zap.Logger, userID string) (context.Context, *zap.Logger) {
	return tagged(ctx, logger, UserIDKey, userID)
}

func stringValue(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// GetRequestID returns the correlation ID, empty when unset.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetUserID returns the user ID, empty when unset.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}
