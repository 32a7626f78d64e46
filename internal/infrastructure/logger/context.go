package logger

import (
	"context"

	"github.com/chronoshop/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type loggerKey struct{}

// WithContext returns ctx carrying log.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithActor records who is acting in ctx and stores a logger tagged with
// that actor. Both the new context and the tagged logger are returned.
func WithActor(ctx context.Context, base *zap.Logger, actor shared.Actor) (context.Context, *zap.Logger) {
	ctx = shared.WithActor(ctx, actor)
	tagged := base.With(zap.String("actor", actor.Username), zap.String("role", actor.Role))
	return WithContext(ctx, tagged), tagged
}

// ActorFields describes the actor in ctx. Unattributed work reports the
// system actor.
func ActorFields(ctx context.Context) []zap.Field {
	actor := shared.ActorFromContext(ctx)
	return []zap.Field{zap.String("actor", actor.Username), zap.String("role", actor.Role)}
}

// TraceFields returns trace_id and span_id for the span active in ctx, or
// nothing when ctx is not being traced.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// Correlate tags base with the actor and trace found in ctx, so store
// and event log lines can be joined with the request that caused them.
func Correlate(ctx context.Context, base *zap.Logger) *zap.Logger {
	return base.With(append(ActorFields(ctx), TraceFields(ctx)...)...)
}
