package notify

import (
	"context"
	"testing"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	assert.NoError(t, n.Notify(context.Background(), shared.EntitySale))
	assert.NoError(t, n.Close())

	entries := logs.FilterField(zap.String("entity", "sale")).All()
	assert.Len(t, entries, 1)
}

func TestNewRedisNotifier_DefaultChannel(t *testing.T) {
	n := NewRedisNotifier(nil, "")
	assert.Equal(t, DefaultChannel, n.channel)
}
