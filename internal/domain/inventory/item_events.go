package inventory

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeItem is the aggregate type for stock items
const AggregateTypeItem = "InventoryItem"

// Event type constants
const (
	EventTypeItemRegistered = "inventory.item_registered"
	EventTypeStockAdjusted  = "inventory.stock_adjusted"
)

// ItemRegisteredEvent is published when a stock item is created
type ItemRegisteredEvent struct {
	shared.EventHeader
	ItemID   uuid.UUID       `json:"item_id"`
	Code     string          `json:"code"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// NewItemRegisteredEvent creates a new ItemRegisteredEvent
func NewItemRegisteredEvent(item *Item) *ItemRegisteredEvent {
	return &ItemRegisteredEvent{
		EventHeader: shared.NewEventHeader(EventTypeItemRegistered, AggregateTypeItem, item.ID),
		ItemID:      item.ID,
		Code:        item.Code,
		Price:       item.Price,
		Quantity:    item.Quantity,
	}
}

// StockAdjustedEvent is published after an explicit restock or write-off
type StockAdjustedEvent struct {
	shared.EventHeader
	ItemID      uuid.UUID `json:"item_id"`
	Delta       int       `json:"delta"`
	NewQuantity int       `json:"new_quantity"`
	Reason      string    `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(adj StockAdjustment) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		EventHeader: shared.NewEventHeader(EventTypeStockAdjusted, AggregateTypeItem, adj.ItemID),
		ItemID:      adj.ItemID,
		Delta:       adj.Delta,
		NewQuantity: adj.NewQuantity,
		Reason:      adj.Reason,
	}
}
