package logger

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogConfig tunes how store statements are logged.
type SQLLogConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// MaxStatement truncates logged SQL. Zero keeps the full text.
	MaxStatement int
}

// SQLLogger adapts zap to gorm's logger. Every statement line is
// correlated with the actor and trace of the unit of work that issued it.
type SQLLogger struct {
	base  *zap.Logger
	cfg   SQLLogConfig
	slow  *atomic.Int64
	fails *atomic.Int64
}

// NewSQLLogger returns a gorm logger writing to base under the "store" name.
func NewSQLLogger(base *zap.Logger, cfg SQLLogConfig) *SQLLogger {
	return &SQLLogger{
		base:  base.Named("store"),
		cfg:   cfg,
		slow:  new(atomic.Int64),
		fails: new(atomic.Int64),
	}
}

// LogMode implements gormlogger.Interface. The copy shares counters.
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.Level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		Correlate(ctx, l.base).Sugar().Infof(msg, data...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		Correlate(ctx, l.base).Sugar().Warnf(msg, data...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		Correlate(ctx, l.base).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. A missing row is an expected
// lookup result and is never logged.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold
	if slow {
		l.slow.Add(1)
	}
	if err != nil {
		l.fails.Add(1)
	}

	var level gormlogger.LogLevel
	switch {
	case err != nil:
		level = gormlogger.Error
	case slow:
		level = gormlogger.Warn
	default:
		level = gormlogger.Info
	}
	if l.cfg.Level < level {
		return
	}

	statement, rows := fc()
	log := Correlate(ctx, l.base).With(
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.clip(statement)),
	)
	switch level {
	case gormlogger.Error:
		log.Error("statement failed", zap.Error(err))
	case gormlogger.Warn:
		log.Warn("slow statement", zap.Duration("threshold", l.cfg.SlowThreshold))
	default:
		log.Debug("statement")
	}
}

// SlowStatements is how many statements exceeded the slow threshold.
func (l *SQLLogger) SlowStatements() int64 { return l.slow.Load() }

// FailedStatements is how many statements returned an error.
func (l *SQLLogger) FailedStatements() int64 { return l.fails.Load() }

func (l *SQLLogger) clip(statement string) string {
	if l.cfg.MaxStatement <= 0 || len(statement) <= l.cfg.MaxStatement {
		return statement
	}
	return statement[:l.cfg.MaxStatement] + "..."
}

// SQLLogLevel maps an application log level name to a gorm level.
func SQLLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
