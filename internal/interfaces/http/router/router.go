// Package router assembles the operations endpoint.
package router

import (
	"github.com/chronoshop/backend/internal/infrastructure/auth"
	"github.com/chronoshop/backend/internal/interfaces/http/handler"
	"github.com/chronoshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds router settings
type Config struct {
	ServiceName    string
	Mode           string // gin mode: debug, release, test
	TracingEnabled bool
	TracerProvider trace.TracerProvider
	// Tokens guards /api/v1 with bearer tokens. Without it the caller is
	// trusted to name itself through X-Actor.
	Tokens middleware.TokenVerifier
}

// New builds the gin engine with the middleware chain and every route
func New(cfg Config, ops *handler.OpsHandler, logger *zap.Logger) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(logger), middleware.RequestID())
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName, cfg.TracerProvider), middleware.RequestIDAttributes())
	}
	engine.Use(middleware.RequestLogger(logger))

	engine.GET("/health", ops.Health)

	v1 := engine.Group("/api/v1")
	read, write := []gin.HandlerFunc{}, []gin.HandlerFunc{}
	if cfg.Tokens != nil {
		v1.Use(middleware.Authenticate(cfg.Tokens))
		read = append(read, middleware.RequireRole(auth.RoleViewer, auth.RoleOperator))
		write = append(write, middleware.RequireRole(auth.RoleOperator))
	} else {
		v1.Use(middleware.Actor())
	}
	{
		customers := v1.Group("/customers/:id")
		customers.GET("/aggregates", append(read, ops.GetAggregates)...)
		customers.GET("/drift", append(read, ops.VerifyCustomer)...)
		customers.POST("/recompute", append(write, ops.Recompute)...)

		v1.POST("/audit/aggregates", append(write, ops.Audit)...)
		v1.POST("/documents/reconcile", append(write, ops.Reconcile)...)
	}

	return engine
}
