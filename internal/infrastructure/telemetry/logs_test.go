package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBridgeLogger_DisabledReturnsBase(t *testing.T) {
	p, err := NewProviders(context.Background(), Config{ServiceName: "test"}, zap.NewNop())
	require.NoError(t, err)

	base := zap.NewExample()
	assert.Same(t, base, p.BridgeLogger(base))
	assert.False(t, p.LogsEnabled())
}

func TestBridgedLogger_RespectsBaseLevel(t *testing.T) {
	baseCore, local := observer.New(zapcore.InfoLevel)
	exportedCore, exported := observer.New(zapcore.DebugLevel)

	log := newBridgedLogger(zap.New(baseCore), exportedCore).With(zap.String("component", "engine"))
	log.Debug("too chatty")
	log.Info("sale recorded")
	log.Error("partial failure")

	assert.Equal(t, 2, local.Len())
	require.Equal(t, 2, exported.Len())
	entries := exported.All()
	assert.Equal(t, "sale recorded", entries[0].Message)
	assert.Equal(t, "engine", entries[0].ContextMap()["component"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
