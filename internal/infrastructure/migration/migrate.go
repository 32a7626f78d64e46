// Package migration applies the versioned SQL schema with golang-migrate.
// The embedded schema in the migrations package is the default source; a
// directory on disk can replace it while a new migration is being written.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chronoshop/backend/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// DefaultTable is the bookkeeping table golang-migrate writes versions to.
const DefaultTable = "schema_migrations"

// Migrator runs schema migrations against a PostgreSQL database.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

type options struct {
	source fs.FS
	table  string
}

// Option customizes a Migrator.
type Option func(*options)

// WithSourceDir reads migrations from dir instead of the embedded schema.
func WithSourceDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.source = os.DirFS(dir)
		}
	}
}

// WithSource reads migrations from fsys.
func WithSource(fsys fs.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.source = fsys
		}
	}
}

// WithTable overrides the version table name.
func WithTable(table string) Option {
	return func(o *options) {
		if table != "" {
			o.table = table
		}
	}
}

// New creates a Migrator over an open PostgreSQL connection.
func New(db *sql.DB, logger *zap.Logger, opts ...Option) (*Migrator, error) {
	o := options{source: migrations.FS, table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := iofs.New(o.source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: o.table})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: logger}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up")
	return m.apply("up", m.migrate.Up)
}

// Down rolls back every applied migration.
func (m *Migrator) Down() error {
	m.logger.Info("Running migrations down")
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations; a negative n rolls back.
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	return m.apply("steps", func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version.
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("Migrating to version", zap.Uint("target_version", version))
	return m.apply("goto", func() error { return m.migrate.Migrate(version) })
}

func (m *Migrator) apply(op string, fn func() error) error {
	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema already up to date", zap.String("op", op))
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version. Zero means nothing has been applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It clears the
// dirty flag left by a migration that failed halfway.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver. The *sql.DB passed to
// New is closed with it.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
