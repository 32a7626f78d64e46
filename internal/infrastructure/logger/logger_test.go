package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigFor(t *testing.T) {
	dev := ConfigFor("development")
	assert.Equal(t, "console", dev.Format)
	assert.False(t, dev.Sample)

	prod := ConfigFor("production")
	assert.Equal(t, "json", prod.Format)
	assert.True(t, prod.Sample)
	assert.Equal(t, "production", prod.Env)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FileOutputCarriesServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.log")
	cfg := ConfigFor("production")
	cfg.Output = path
	cfg.Service = "chronoshop"

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("sale recorded")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "sale recorded", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "chronoshop", entry["service"])
	assert.Equal(t, "production", entry["env"])
}

func TestNew_UnwritableFile(t *testing.T) {
	cfg := ConfigFor("development")
	cfg.Output = filepath.Join(t.TempDir(), "missing", "dir", "shop.log")
	_, err := New(cfg)
	assert.Error(t, err)
}
