package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds continuous profiling settings
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	// Locks adds mutex and block profiles. They cost more than CPU and heap
	// profiles and are meant for chasing contention on the store lock.
	Locks bool
}

// Profiler pushes pprof profiles to a Pyroscope server. A disabled profiler
// is a no-op.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	once     sync.Once
}

// NewProfiler starts profiling when enabled
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, errors.New("profiler needs a server address and an application name")
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes:    profileTypes(cfg.Locks),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}
	p.profiler = profiler
	logger.Info("Continuous profiling started",
		zap.String("server_address", cfg.ServerAddress),
		zap.Bool("locks", cfg.Locks))
	return p, nil
}

func profileTypes(locks bool) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if locks {
		types = append(types,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		)
	}
	return types
}

// Enabled reports whether profiles are pushed
func (p *Profiler) Enabled() bool {
	return p.profiler != nil
}

// Close stops the profiler and flushes pending profiles. Safe to call twice.
func (p *Profiler) Close() error {
	var err error
	p.once.Do(func() {
		if p.profiler == nil {
			return
		}
		if err = p.profiler.Stop(); err != nil {
			err = fmt.Errorf("failed to stop profiler: %w", err)
		}
	})
	return err
}

type pyroscopeLogger struct {
	log *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }
