package shared

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names a persisted collection. It keys cache invalidation and
// refresh notifications.
type EntityType string

const (
	EntityCustomer      EntityType = "customer"
	EntityInventoryItem EntityType = "inventory_item"
	EntitySale          EntityType = "sale"
	EntityService       EntityType = "service"
	EntityInvoice       EntityType = "invoice"
	EntityExpense       EntityType = "expense"
)

func (t EntityType) String() string {
	return string(t)
}

// Identity is the id and bookkeeping timestamps every stored record has.
// Invoices and expenses embed it directly; the aggregates embed it through
// Aggregate.
type Identity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIdentity assigns a fresh id stamped with the current time.
func NewIdentity() Identity {
	now := time.Now()
	return Identity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
