package trade

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type for sales
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleRecorded = "sale.recorded"
	EventTypeSaleReversed = "sale.reversed"
	EventTypeSaleEdited   = "sale.edited"
)

var saleTouches = []shared.EntityType{shared.EntitySale, shared.EntityCustomer, shared.EntityInventoryItem}

// SaleRecordedEvent is published after a sale and its stock/customer updates commit
type SaleRecordedEvent struct {
	shared.EventHeader
	SaleID      uuid.UUID       `json:"sale_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleRecordedEvent creates a new SaleRecordedEvent
func NewSaleRecordedEvent(s *Sale) *SaleRecordedEvent {
	return &SaleRecordedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSaleRecorded, AggregateTypeSale, s.ID),
		SaleID:      s.ID,
		CustomerID:  s.CustomerID,
		ItemID:      s.ItemID,
		Quantity:    s.Quantity,
		TotalAmount: s.TotalAmount,
	}
}

// Touched implements shared.TouchedEntities
func (e *SaleRecordedEvent) Touched() []shared.EntityType { return saleTouches }

// SaleReversedEvent is published after a sale is deleted and its effects undone
type SaleReversedEvent struct {
	shared.EventHeader
	SaleID      uuid.UUID       `json:"sale_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleReversedEvent creates a new SaleReversedEvent
func NewSaleReversedEvent(s *Sale) *SaleReversedEvent {
	return &SaleReversedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSaleReversed, AggregateTypeSale, s.ID),
		SaleID:      s.ID,
		CustomerID:  s.CustomerID,
		ItemID:      s.ItemID,
		Quantity:    s.Quantity,
		TotalAmount: s.TotalAmount,
	}
}

// Touched implements shared.TouchedEntities
func (e *SaleReversedEvent) Touched() []shared.EntityType { return saleTouches }

// SaleEditedEvent is published when a sale is replaced by an edited copy
type SaleEditedEvent struct {
	shared.EventHeader
	PreviousSaleID uuid.UUID `json:"previous_sale_id"`
	SaleID         uuid.UUID `json:"sale_id"`
}

// NewSaleEditedEvent creates a new SaleEditedEvent
func NewSaleEditedEvent(previous, replacement *Sale) *SaleEditedEvent {
	return &SaleEditedEvent{
		EventHeader:    shared.NewEventHeader(EventTypeSaleEdited, AggregateTypeSale, replacement.ID),
		PreviousSaleID: previous.ID,
		SaleID:         replacement.ID,
	}
}

// Touched implements shared.TouchedEntities
func (e *SaleEditedEvent) Touched() []shared.EntityType { return saleTouches }
