package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/chronoshop/backend/internal/application/consistency"
	"github.com/chronoshop/backend/internal/application/document"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the engine counters
var (
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
	AttrErrorCode = attribute.Key("error_code")
	AttrKind      = attribute.Key("document_kind")
	AttrStatus    = attribute.Key("document_status")
)

// Outcome values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

var (
	_ consistency.Metrics = (*EngineMetrics)(nil)
	_ document.Metrics    = (*EngineMetrics)(nil)
)

// EngineMetrics counts business events, partial failures and document
// dispatch outcomes.
type EngineMetrics struct {
	operations      metric.Int64Counter
	partialFailures metric.Int64Counter
	documents       metric.Int64Counter
}

// NewEngineMetrics registers the engine instruments on meter
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	operations, err := meter.Int64Counter(
		"chronoshop_operations_total",
		metric.WithDescription("Business events executed by the consistency engine"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}

	partialFailures, err := meter.Int64Counter(
		"chronoshop_partial_failures_total",
		metric.WithDescription("Business events whose compensation did not complete"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create partial failure counter: %w", err)
	}

	documents, err := meter.Int64Counter(
		"chronoshop_documents_total",
		metric.WithDescription("Document dispatch outcomes by kind and status"),
		metric.WithUnit("{documents}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents counter: %w", err)
	}

	return &EngineMetrics{
		operations:      operations,
		partialFailures: partialFailures,
		documents:       documents,
	}, nil
}

// RecordOperation counts one engine operation. Failures carry the domain
// error code, or "internal" for errors outside the domain taxonomy.
func (m *EngineMetrics) RecordOperation(ctx context.Context, operation string, err error) {
	attrs := []attribute.KeyValue{AttrOperation.String(operation)}
	if err == nil {
		attrs = append(attrs, AttrOutcome.String(OutcomeSuccess))
	} else {
		code := shared.ErrorCode(err)
		if code == "" {
			code = "internal"
		}
		attrs = append(attrs, AttrOutcome.String(OutcomeFailure), AttrErrorCode.String(code))
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPartialFailure counts an operation left inconsistent
func (m *EngineMetrics) RecordPartialFailure(ctx context.Context, operation string) {
	m.partialFailures.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}

// RecordDocument counts one dispatch outcome
func (m *EngineMetrics) RecordDocument(ctx context.Context, kind billing.DocumentKind, status billing.DocumentStatus) {
	m.documents.Add(ctx, 1, metric.WithAttributes(
		AttrKind.String(string(kind)),
		AttrStatus.String(string(status)),
	))
}
