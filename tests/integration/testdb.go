// Package integration runs the engine and its adapters against real
// PostgreSQL and Redis containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/infrastructure/config"
	"github.com/chronoshop/backend/internal/infrastructure/migration"
	"github.com/chronoshop/backend/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
	testPassword  = "chronoshop"
)

// TestDB is a migrated PostgreSQL database in its own container
type TestDB struct {
	Database *persistence.Database
	Config   config.DatabaseConfig
	DSN      string
}

// skipShort skips container tests under -short
func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// NewTestDB starts PostgreSQL, applies the embedded migrations and opens the
// database the same way the server does.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase("chronoshop_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        testPassword,
		DBName:          "chronoshop_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
		SlowThreshold:   time.Second,
	}

	migrate(t, cfg.DSN())

	database, err := persistence.OpenDatabase(&cfg, zap.NewNop(), "error")
	require.NoError(t, err, "Failed to open database")
	t.Cleanup(func() { _ = database.Close() })

	return &TestDB{Database: database, Config: cfg, DSN: cfg.DSN()}
}

// NewMigrator returns a migrator on a fresh connection to the test database
func (tdb *TestDB) NewMigrator(t *testing.T) *migration.Migrator {
	t.Helper()
	db, err := sql.Open("postgres", tdb.DSN)
	require.NoError(t, err)
	m, err := migration.New(db, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func migrate(t *testing.T, dsn string) {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	m, err := migration.New(db, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Up(), "Failed to apply migrations")
}

// NewTestRedis starts Redis and returns a connected client
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}
