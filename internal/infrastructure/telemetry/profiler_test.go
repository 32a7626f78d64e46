package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "chronoshop"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProfileTypes(t *testing.T) {
	base := profileTypes(false)
	assert.Contains(t, base, pyroscope.ProfileCPU)
	assert.NotContains(t, base, pyroscope.ProfileMutexCount)

	withLocks := profileTypes(true)
	assert.Len(t, withLocks, len(base)+4)
	assert.Contains(t, withLocks, pyroscope.ProfileBlockDuration)
}
