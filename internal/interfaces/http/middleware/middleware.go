// Package middleware holds the gin middleware of the operations endpoint.
package middleware

import (
	"net/http"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Header and context keys
const (
	RequestIDHeader = "X-Request-ID"
	ActorHeader     = "X-Actor"
	ActorRoleHeader = "X-Actor-Role"

	RequestIDKey = "request_id"
	LoggerKey    = "logger"
)

// MaxRequestIDLength bounds client supplied request ids
const MaxRequestIDLength = 128

// RequestID reuses the caller's X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		} else if len(id) > MaxRequestIDLength {
			id = id[:MaxRequestIDLength]
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger attaches a request-scoped logger to the gin and request
// contexts and logs one line per request, at a level chosen by status.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := base.With(
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(LoggerKey, reqLogger)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("HTTP Request", fields...)
		default:
			reqLogger.Info("HTTP Request", fields...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs the stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				base.Error("Panic recovered",
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", rec),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// Actor puts the caller named by X-Actor / X-Actor-Role into the request
// context so audit entries name who triggered an operation. Requests without
// the header run as the system actor.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.GetHeader(ActorHeader)
		if name == "" {
			c.Next()
			return
		}
		actor := shared.Actor{Username: name, Role: c.GetHeader(ActorRoleHeader)}
		ctx, enriched := logger.WithActor(c.Request.Context(), GetLogger(c), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set(LoggerKey, enriched)
		c.Next()
	}
}

// Tracing wraps otelgin and tags the span with the request id. A nil
// provider falls back to the global one.
func Tracing(serviceName string, provider trace.TracerProvider) gin.HandlerFunc {
	var opts []otelgin.Option
	if provider != nil {
		opts = append(opts, otelgin.WithTracerProvider(provider))
	}
	return otelgin.Middleware(serviceName, opts...)
}

// RequestIDAttributes copies the request id onto the active span. It runs
// inside Tracing so the span already exists.
func RequestIDAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(attribute.String("request_id", c.GetString(RequestIDKey)))
		}
		c.Next()
	}
}

// GetLogger returns the request-scoped logger, or a no-op logger
func GetLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(LoggerKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return zap.NewNop()
}
