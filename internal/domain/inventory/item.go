package inventory

import (
	"strings"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is derived from the quantity on hand
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusSold      ItemStatus = "sold"
)

// StatusFor derives the status for a quantity
func StatusFor(quantity int) ItemStatus {
	if quantity > 0 {
		return ItemStatusAvailable
	}
	return ItemStatusSold
}

// Item is a stock item (a watch, strap, battery...) identified by a unique code.
//
// Quantity and Status are owned by the consistency engine and only change
// through ItemRepository.AdjustQuantity, which refuses to go below zero.
type Item struct {
	shared.Aggregate
	Code  string
	Brand string
	Model string
	Type  string
	Price decimal.Decimal

	Quantity int
	Status   ItemStatus

	NeedsReconcile bool
}

// NewItem creates a stock item with an initial quantity
func NewItem(code, brand, model, itemType string, price decimal.Decimal, quantity int) (*Item, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewValidationError("item code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("item code cannot exceed 50 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("item price cannot be negative")
	}
	if quantity < 0 {
		return nil, shared.NewValidationError("item quantity cannot be negative")
	}

	item := &Item{
		Aggregate: shared.NewAggregate(),
		Code:      code,
		Brand:     strings.TrimSpace(brand),
		Model:     strings.TrimSpace(model),
		Type:      strings.TrimSpace(itemType),
		Price:     price,
		Quantity:  quantity,
		Status:    StatusFor(quantity),
	}
	item.Record(NewItemRegisteredEvent(item))
	return item, nil
}

// CanFulfill reports whether quantity units are on hand
func (i *Item) CanFulfill(quantity int) bool {
	return quantity > 0 && i.Quantity >= quantity
}

// ConsistentStatus reports whether Status matches Quantity
func (i *Item) ConsistentStatus() bool {
	return i.Quantity >= 0 && i.Status == StatusFor(i.Quantity)
}

// StockAdjustment records a quantity change applied to an item
type StockAdjustment struct {
	ItemID      uuid.UUID
	Delta       int
	NewQuantity int
	Reason      string
}
