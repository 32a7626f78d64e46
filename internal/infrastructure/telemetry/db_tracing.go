package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database spans
type DBTracingConfig struct {
	DBSystem        string        // Default: "postgresql"
	SlowQueryThresh time.Duration // Default: 200ms
	WithVariables   bool          // Include bound query values in spans (dev only)
	TracerProvider  trace.TracerProvider
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin on db plus callbacks that
// flag slow statements and record errors on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.WithVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		annotateSpan(tx, cfg.SlowQueryThresh)
	}

	cb := db.Callback()
	hooks := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("chronoshop_trace:before_"+h.operation, before); err != nil {
			return err
		}
		if err := h.after("chronoshop_trace:after_"+h.operation, after); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))

	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
