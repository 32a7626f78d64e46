// Package telemetry wires OpenTelemetry metrics, tracing and log export, and
// continuous profiling, for the shop backend.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config holds telemetry export configuration
type Config struct {
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool
	MetricsEnabled    bool
	ExportInterval    time.Duration // Default: 60s
	TracingEnabled    bool
	SamplingRatio     float64
	LogsEnabled       bool
	// SpanProfiles labels profiler samples with the active span id
	SpanProfiles bool
}

// Providers owns the meter and tracer providers. With export disabled the
// global no-op providers are handed out instead.
type Providers struct {
	meters *sdkmetric.MeterProvider
	traces *sdktrace.TracerProvider
	tracer trace.TracerProvider
	logs   *sdklog.LoggerProvider
	config Config
	logger *zap.Logger
}

// NewProviders creates the configured providers and installs them globally
func NewProviders(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Providers{config: cfg, logger: logger}

	if !cfg.MetricsEnabled && !cfg.TracingEnabled && !cfg.LogsEnabled {
		logger.Info("Telemetry export disabled, using no-op providers")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.MetricsEnabled {
		if err := p.startMetrics(ctx, res); err != nil {
			return nil, err
		}
	}
	if cfg.TracingEnabled {
		if err := p.startTracing(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}
	if cfg.LogsEnabled {
		if err := p.startLogs(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}

	logger.Info("OpenTelemetry providers initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("tracing", cfg.TracingEnabled),
		zap.Bool("logs", cfg.LogsEnabled),
	)
	return p, nil
}

func (p *Providers) startMetrics(ctx context.Context, res *resource.Resource) error {
	interval := p.config.ExportInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	p.meters = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(p.meters)
	return nil
}

func (p *Providers) startTracing(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	p.traces = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(p.config.SamplingRatio)),
	)
	p.tracer = p.traces
	if p.config.SpanProfiles {
		p.tracer = otelpyroscope.NewTracerProvider(p.traces)
	}
	otel.SetTracerProvider(p.tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Meter returns a named meter
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meters == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meters.Meter(name, opts...)
}

// TracerProvider returns the active tracer provider
func (p *Providers) TracerProvider() trace.TracerProvider {
	if p.tracer == nil {
		return otel.GetTracerProvider()
	}
	return p.tracer
}

// MetricsEnabled reports whether metrics are exported
func (p *Providers) MetricsEnabled() bool {
	return p.meters != nil
}

// TracingEnabled reports whether spans are exported
func (p *Providers) TracingEnabled() bool {
	return p.traces != nil
}

// Shutdown flushes and stops both providers
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.traces != nil {
		if err := p.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if p.logs != nil {
		if err := p.logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown logger provider: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		p.logger.Error("Telemetry shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

// Close implements shared.Closeable
func (p *Providers) Close() error {
	return p.Shutdown(context.Background())
}
