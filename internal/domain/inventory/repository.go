package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines the interface for stock item persistence
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	FindByCode(ctx context.Context, code string) (*Item, error)

	// Insert creates an item. A duplicate code yields ErrConflict.
	Insert(ctx context.Context, item *Item) error

	// AdjustQuantity adds delta to the quantity, re-derives the status and
	// returns the new quantity.
	//
	// Atomic stores apply the change conditionally and return
	// ErrInsufficientStock when the result would be negative. Stores without
	// multi-statement atomicity apply it unconditionally and the caller must
	// check the returned quantity.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// SetReconcileFlag sets or clears the NeedsReconcile marker
	SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error

	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
