package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetContextFromGinContext returns the traced context stored by the tracing
// middleware, falling back to the request context. Screens mounted for a
// request use it as their parent, so client disconnects cancel their fetches.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if ctx, ok := c.Value(SpanContextKey).(context.Context); ok {
		return ctx
	}
	return c.Request.Context()
}

func GetRequestIDFromGinContext(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RequestLogger tags logger with the request id, when there is one.
func RequestLogger(c *gin.Context, logger *zap.Logger) *zap.Logger {
	if id := GetRequestIDFromGinContext(c); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
