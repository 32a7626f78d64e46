package billing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByRelated returns the invoice of the given type issued for an
	// entity, or ErrNotFound
	FindByRelated(ctx context.Context, relatedID uuid.UUID, invoiceType InvoiceType) (*Invoice, error)

	// Insert stores a new invoice. A duplicate invoice number yields ErrConflict.
	Insert(ctx context.Context, invoice *Invoice) error
}
