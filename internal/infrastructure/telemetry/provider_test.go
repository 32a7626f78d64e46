package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

func TestNewProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := NewProviders(ctx, Config{ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.TracingEnabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NotNil(t, p.TracerProvider())
	assert.NoError(t, p.Close())
}

func TestNewProviders_NilLogger(t *testing.T) {
	p, err := NewProviders(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(2).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
