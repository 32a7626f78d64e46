package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (p *Providers) startLogs(ctx context.Context, res *resource.Resource) error {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	p.logs = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(p.logs)
	return nil
}

// LogsEnabled reports whether log records are exported
func (p *Providers) LogsEnabled() bool {
	return p.logs != nil
}

// BridgeLogger returns base teed into the OTLP log pipeline, or base itself
// when log export is off. Records below base's level are not exported.
func (p *Providers) BridgeLogger(base *zap.Logger) *zap.Logger {
	if p.logs == nil {
		return base
	}
	return newBridgedLogger(base, otelzap.NewCore(p.config.ServiceName, otelzap.WithLoggerProvider(p.logs)))
}

func newBridgedLogger(base *zap.Logger, exported zapcore.Core) *zap.Logger {
	minLevel := zapcore.LevelOf(base.Core())
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, &levelFilterCore{Core: exported, min: minLevel})
	}))
}

// levelFilterCore drops entries below min; the otelzap core has no level of
// its own.
type levelFilterCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), min: c.min}
}
