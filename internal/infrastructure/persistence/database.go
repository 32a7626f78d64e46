package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/chronoshop/backend/internal/infrastructure/logger"
	"github.com/chronoshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB     *gorm.DB
	Driver string
}

// OpenDatabase connects to the database selected by cfg.Driver.
// The memory driver has no database and is rejected here.
func OpenDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel string) (*Database, error) {
	gormLog := logger.NewSQLLogger(zapLogger, logger.SQLLogConfig{
		Level:         logger.SQLLogLevel(logLevel),
		SlowThreshold: cfg.SlowThreshold,
		MaxStatement:  2048,
	})

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:                 gormLog,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
			TranslateError:         true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return configurePool(db, cfg, config.DriverPostgres)
	case config.DriverSQLite:
		return openSQLite(sqliteDSN(cfg.SQLitePath), gormLog)
	default:
		return nil, fmt.Errorf("driver %q has no database connection", cfg.Driver)
	}
}

// OpenSQLiteMemory opens a private in-memory SQLite database with the schema
// migrated. Used by tests and local demos.
func OpenSQLiteMemory() (*Database, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := openSQLite(dsn, gormlogger.Default.LogMode(gormlogger.Silent))
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

func openSQLite(dsn string, gormLog gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLog,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite serializes writers; a single connection keeps transactions
	// from failing with SQLITE_BUSY under concurrent callers.
	sqlDB.SetMaxOpenConns(1)
	return &Database{DB: db, Driver: config.DriverSQLite}, nil
}

func configurePool(db *gorm.DB, cfg *config.DatabaseConfig, driver string) (*Database, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Driver: driver}, nil
}

// AutoMigrate creates or updates every table. Production deployments use
// the SQL migrations instead; foreign keys exist only there.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// isDuplicateKey reports a unique constraint violation. Drivers that do not
// translate errors are matched on their message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// isCheckViolation reports a CHECK constraint violation
func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}
