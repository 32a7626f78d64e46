package partner

import (
	"context"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll lists customers page by page
	FindAll(ctx context.Context, q shared.ListQuery) ([]Customer, error)

	// Insert creates a customer. Duplicate email or phone yields ErrConflict.
	Insert(ctx context.Context, customer *Customer) error

	// UpdateAggregates persists the derived fields with an optimistic
	// version check against customer.Version-1.
	// Returns ErrConcurrencyConflict if the row was modified meanwhile.
	UpdateAggregates(ctx context.Context, customer *Customer) error

	// SetReconcileFlag sets or clears the NeedsReconcile marker
	SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error

	// Delete removes the customer and returns the number of rows removed
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
