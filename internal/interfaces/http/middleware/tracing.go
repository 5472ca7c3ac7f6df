// Package middleware provides HTTP middleware for the cobranca backend.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxRequestIDLength caps header-supplied request ids before they land in
// span attributes.
const maxRequestIDLength = 128

// TracingConfig controls the HTTP span middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig wraps otelgin and enriches the request span with the
// request id and, once authentication has run, the caller's user id. Span
// names follow otelgin's "METHOD route" convention, e.g.
// "POST /api/v1/dashboard/clientes".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	otelMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		otelMiddleware(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if requestID := spanRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if userID, ok := c.Get(JWTUserIDKey); ok {
			if id, ok := userID.(string); ok && id != "" {
				span.SetAttributes(attribute.String("user_id", id))
			}
		}
	}
}

// spanRequestID prefers the id stamped by the RequestID middleware and
// falls back to the raw header, truncated.
func spanRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > maxRequestIDLength {
		return headerID[:maxRequestIDLength]
	}
	return headerID
}

// SpanErrorMarker flags 4xx/5xx responses on the request span. Mount it
// after TracingWithConfig so the span exists when the response status is
// known.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}

		span.SetStatus(codes.Error, http.StatusText(statusCode))
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}
