package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewEngineMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewEngineMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, m)
}

func TestEngineMetrics_Noop(t *testing.T) {
	m, err := telemetry.NewEngineMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	// Should not panic
	m.RecordOperation(ctx, "record_sale", nil)
	m.RecordOperation(ctx, "record_sale", shared.ErrInsufficientStock)
	m.RecordPartialFailure(ctx, "record_sale")
	m.RecordDocument(ctx, billing.KindSalesInvoice, billing.DocumentStatusIssued)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func valueFor(sum metricdata.Sum[int64], attrs ...attribute.KeyValue) int64 {
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestEngineMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewEngineMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordOperation(ctx, "record_sale", nil)
	m.RecordOperation(ctx, "record_sale", nil)
	m.RecordOperation(ctx, "record_sale", shared.NewInsufficientStockError("W-1", 2, 1))
	m.RecordOperation(ctx, "reverse_sale", errors.New("boom"))
	m.RecordPartialFailure(ctx, "record_sale")
	m.RecordDocument(ctx, billing.KindSalesInvoice, billing.DocumentStatusPending)

	sums := collect(t, reader)

	ops := sums["chronoshop_operations_total"]
	assert.True(t, ops.IsMonotonic)
	assert.Equal(t, int64(2), valueFor(ops,
		telemetry.AttrOperation.String("record_sale"),
		telemetry.AttrOutcome.String(telemetry.OutcomeSuccess),
	))
	assert.Equal(t, int64(1), valueFor(ops,
		telemetry.AttrOperation.String("record_sale"),
		telemetry.AttrOutcome.String(telemetry.OutcomeFailure),
		telemetry.AttrErrorCode.String(shared.CodeInsufficientStock),
	))
	assert.Equal(t, int64(1), valueFor(ops,
		telemetry.AttrOperation.String("reverse_sale"),
		telemetry.AttrOutcome.String(telemetry.OutcomeFailure),
		telemetry.AttrErrorCode.String("internal"),
	))

	assert.Equal(t, int64(1), valueFor(sums["chronoshop_partial_failures_total"],
		telemetry.AttrOperation.String("record_sale"),
	))
	assert.Equal(t, int64(1), valueFor(sums["chronoshop_documents_total"],
		telemetry.AttrKind.String(string(billing.KindSalesInvoice)),
		telemetry.AttrStatus.String(string(billing.DocumentStatusPending)),
	))
}
