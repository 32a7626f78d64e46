package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	recorder := tracetest.NewSpanRecorder()
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	return db, recorder
}

func TestRegisterDBTracing_RecordsSpans(t *testing.T) {
	db, recorder := openTracedDB(t, DBTracingConfig{DBSystem: "sqlite"})
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)

	spans := recorder.Ended()
	require.GreaterOrEqual(t, len(spans), 2)
}

func TestRegisterDBTracing_DuplicateRegistration(t *testing.T) {
	db, _ := openTracedDB(t, DBTracingConfig{})
	err := RegisterDBTracing(db, DBTracingConfig{}, nil)
	assert.Error(t, err)
}
