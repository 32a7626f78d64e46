package finance

import (
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Expense is a shop expenditure (rent, parts, tools). Expenses do not feed
// any aggregate field.
type Expense struct {
	shared.Identity
	Category    string
	Description string
	Amount      decimal.Decimal
	PaidAt      time.Time
	PaymentMode string
}

// NewExpense creates an expense record
func NewExpense(category, description string, amount decimal.Decimal, paidAt time.Time, paymentMode string) (*Expense, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, shared.NewValidationError("expense category cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("expense amount must be positive")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Expense{
		Identity:    shared.NewIdentity(),
		Category:    category,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		PaidAt:      paidAt,
		PaymentMode: paymentMode,
	}, nil
}
