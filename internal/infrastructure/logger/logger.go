// Package logger builds the zap loggers used across the shop backend and
// carries them through request and event contexts.
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ISOTime is the timestamp layout written by every shop log line.
const ISOTime = "2006-01-02T15:04:05.000Z07:00"

// Config describes where log lines go and how they look.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or a file path
	TimeFormat string

	// Service and Env are stamped on every entry when set.
	Service string
	Env     string

	// Sample drops repeated identical entries after the first burst each
	// second. Meant for production where a failing store can flood logs.
	Sample bool
}

// ConfigFor returns the baseline configuration for a deployment
// environment. Production writes sampled JSON, everything else console.
func ConfigFor(env string) Config {
	cfg := Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: ISOTime,
		Env:        env,
	}
	if env == "production" {
		cfg.Format = "json"
		cfg.Sample = true
	}
	return cfg
}

// New creates a zap logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	writer, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	var core zapcore.Core = zapcore.NewCore(encoderFor(cfg), writer, ParseLevel(cfg.Level))
	if cfg.Sample {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 50)
	}

	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	var fields []zap.Field
	if cfg.Service != "" {
		fields = append(fields, zap.String("service", cfg.Service))
	}
	if cfg.Env != "" {
		fields = append(fields, zap.String("env", cfg.Env))
	}
	return log.With(fields...), nil
}

// ParseLevel converts a level name to a zapcore.Level. Unknown names are info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		if strings.EqualFold(level, "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return l
}

func encoderFor(cfg Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = ISOTime
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.Lock(file), nil
}
