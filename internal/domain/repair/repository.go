package repair

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRepository defines the interface for repair service persistence
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)

	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Service, error)

	Insert(ctx context.Context, service *Service) error

	// UpdateLifecycle writes the status, timestamps and completion fields,
	// provided the stored status still equals expected.
	// Returns ErrConcurrencyConflict when another caller moved the ticket first.
	UpdateLifecycle(ctx context.Context, service *Service, expected Status) error

	// Delete removes a ticket and returns the number of rows removed
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// SumCompletedCostByCustomer sums Cost over completed tickets
	SumCompletedCostByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)

	AttachAcknowledgement(ctx context.Context, id, invoiceID uuid.UUID) error

	AttachCompletionInvoice(ctx context.Context, id, invoiceID uuid.UUID) error

	// FindPendingDocuments lists tickets owing an acknowledgement or a
	// completion invoice
	FindPendingDocuments(ctx context.Context, limit int) ([]Service, error)
}
