package trade

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountNone, DiscountPercentage, DiscountFixed:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Discount is the discount applied to a sale. Amount is the resolved
// currency amount, always within [0, subtotal].
type Discount struct {
	Type   DiscountType    `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

// NoDiscount returns an empty discount
func NoDiscount() Discount {
	return Discount{Type: DiscountNone, Value: decimal.Zero, Amount: decimal.Zero}
}

// ResolveDiscount computes the discount amount against subtotal and clamps it
// to [0, subtotal]. Out-of-range values are clamped, never rejected.
func ResolveDiscount(discountType DiscountType, value, subtotal decimal.Decimal) (Discount, error) {
	if discountType == "" {
		discountType = DiscountNone
	}
	if !discountType.IsValid() {
		return Discount{}, shared.NewValidationError("unknown discount type %q", discountType)
	}

	var amount decimal.Decimal
	switch discountType {
	case DiscountPercentage:
		amount = subtotal.Mul(value).Div(hundred).Round(2)
	case DiscountFixed:
		value = shared.RoundAmount(value)
		amount = value
	default:
		value = decimal.Zero
		amount = decimal.Zero
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return Discount{Type: discountType, Value: value, Amount: amount}, nil
}
