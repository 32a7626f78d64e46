package consistency

import (
	"time"

	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordSaleRequest is the input of RecordSale and EditSale.
// A nil UnitPrice defaults to the item's current price.
type RecordSaleRequest struct {
	CustomerID    uuid.UUID        `json:"customer_id" validate:"required"`
	ItemID        uuid.UUID        `json:"item_id" validate:"required"`
	Quantity      int              `json:"quantity" validate:"gt=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	DiscountType  string           `json:"discount_type" validate:"omitempty,oneof=none percentage fixed"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	PaymentMethod string           `json:"payment_method" validate:"max=50"`
	SoldAt        time.Time        `json:"sold_at"`
}

// RecordServiceRequest opens a repair ticket
type RecordServiceRequest struct {
	CustomerID         uuid.UUID       `json:"customer_id" validate:"required"`
	WatchBrand         string          `json:"watch_brand" validate:"required,max=100"`
	WatchModel         string          `json:"watch_model" validate:"max=100"`
	SerialNumber       string          `json:"serial_number" validate:"max=100"`
	ProblemDescription string          `json:"problem_description" validate:"max=2000"`
	EstimatedCost      decimal.Decimal `json:"estimated_cost"`
	ExpectedDelivery   *time.Time      `json:"expected_delivery"`
}

// TransitionServiceRequest moves a ticket to Status. Completion is required
// when Status is completed and ignored otherwise.
type TransitionServiceRequest struct {
	ServiceID  uuid.UUID          `json:"service_id" validate:"required"`
	Status     string             `json:"status" validate:"required,oneof=pending in-progress on-hold completed"`
	Completion *CompletionRequest `json:"completion"`
}

// CompletionRequest is the payload of the in-progress to completed transition
type CompletionRequest struct {
	Description    string          `json:"description" validate:"required,max=2000"`
	FinalCost      decimal.Decimal `json:"final_cost"`
	WarrantyPeriod int             `json:"warranty_period" validate:"gte=0,lte=60"`
	ActualDelivery *time.Time      `json:"actual_delivery"`
	Attachment     *Attachment     `json:"attachment"`
}

// Attachment is an image or document stored with a completed ticket
type Attachment struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
	Data        []byte `json:"-"`
}

// RegisterCustomerRequest creates a customer
type RegisterCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
}

// RegisterItemRequest creates a stock item
type RegisterItemRequest struct {
	Code     string          `json:"code" validate:"required,max=50"`
	Brand    string          `json:"brand" validate:"max=100"`
	Model    string          `json:"model" validate:"max=100"`
	Type     string          `json:"type" validate:"max=50"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

// RestockRequest adds (or with a negative Delta removes) stock
type RestockRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Delta  int       `json:"delta" validate:"ne=0"`
	Reason string    `json:"reason" validate:"max=200"`
}

// Drift compares a customer's stored aggregates with the values derived from
// its sales and services
type Drift struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Stored     partner.Aggregates `json:"stored"`
	Derived    partner.Aggregates `json:"derived"`
	Flagged    bool               `json:"flagged"`
}

// HasDrift reports whether the stored aggregates are stale
func (d Drift) HasDrift() bool {
	return !d.Stored.Equal(d.Derived)
}
