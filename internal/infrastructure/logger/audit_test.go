package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAuditLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	audit := NewZapAuditLog(zap.New(core))

	err := audit.Log(context.Background(), "maria", "cashier", "sale.recorded", "sales", map[string]any{"sale_id": "s-1"})
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "sale.recorded", entry.Message)
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, "maria", entry.ContextMap()["actor"])
	assert.Equal(t, "sales", entry.ContextMap()["category"])
}
