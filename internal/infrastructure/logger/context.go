package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// WithContext attaches the logger to the context. Downstream code
// (services, the GORM adapter) retrieves it with FromContext so every
// entry of one request carries the same correlation fields.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the request-scoped logger, or a no-op logger when
// the context was never enriched (background jobs, tests).
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithRequestID stamps the request id on the context and the logger
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	log = log.With(zap.String("request_id", requestID))
	return WithContext(ctx, log), log
}

// WithUserID stamps the acting user on the context and the logger. The
// JWT middleware calls this once the token is verified, so annotation
// and anticipation writes log who performed them.
func WithUserID(ctx context.Context, log *zap.Logger, userID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, userIDKey, userID)
	log = log.With(zap.String("user_id", userID))
	return WithContext(ctx, log), log
}

// GetRequestID returns the request id stamped by WithRequestID, if any
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetUserID returns the user id stamped by WithUserID, if any
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithTraceContext adds trace_id and span_id from the active span, so
// log entries can be joined with the request trace in the backend. A
// context without a valid span leaves the logger unchanged.
func WithTraceContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
