package trade

import (
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records one item line sold to a customer. A sale is never patched in
// place: edits reverse the original and record a replacement.
type Sale struct {
	shared.Aggregate
	CustomerID    uuid.UUID
	ItemID        uuid.UUID
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	Discount      Discount
	TotalAmount   decimal.Decimal
	PaymentMethod string
	SoldAt        time.Time

	InvoiceID     *uuid.UUID
	InvoiceStatus billing.DocumentStatus
}

// SaleInput carries the fields needed to create a sale
type SaleInput struct {
	CustomerID    uuid.UUID
	ItemID        uuid.UUID
	Quantity      int
	UnitPrice     decimal.Decimal
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	PaymentMethod string
	SoldAt        time.Time
}

// NewSale creates a sale with computed totals and a pending invoice. Money
// is kept at shared.AmountScale places so stored sums match exactly.
func NewSale(in SaleInput) (*Sale, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("sale requires a customer")
	}
	if in.ItemID == uuid.Nil {
		return nil, shared.NewValidationError("sale requires an inventory item")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("sale quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit price cannot be negative")
	}

	unitPrice := shared.RoundAmount(in.UnitPrice)
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	discount, err := ResolveDiscount(in.DiscountType, in.DiscountValue, subtotal)
	if err != nil {
		return nil, err
	}

	soldAt := in.SoldAt
	if soldAt.IsZero() {
		soldAt = time.Now()
	}

	return &Sale{
		Aggregate:     shared.NewAggregate(),
		CustomerID:    in.CustomerID,
		ItemID:        in.ItemID,
		Quantity:      in.Quantity,
		UnitPrice:     unitPrice,
		Subtotal:      subtotal,
		Discount:      discount,
		TotalAmount:   subtotal.Sub(discount.Amount),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		SoldAt:        soldAt,
		InvoiceStatus: billing.DocumentStatusPending,
	}, nil
}

// HasInvoice reports whether the sales invoice has been linked
func (s *Sale) HasInvoice() bool {
	return s.InvoiceID != nil && s.InvoiceStatus == billing.DocumentStatusIssued
}

// DocumentRequest describes the invoice to generate for the sale
func (s *Sale) DocumentRequest() billing.RelatedEntity {
	return billing.RelatedEntity{
		Kind:       billing.KindSalesInvoice,
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Amount:     s.TotalAmount,
	}
}
