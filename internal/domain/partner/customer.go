package partner

import (
	"net/mail"
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer represents a shop customer.
//
// NetValue, PurchaseCount and ServiceCount are aggregate fields derived from
// the customer's sales and services. They are written only through
// ApplyAggregates, which the consistency engine calls after re-deriving them.
type Customer struct {
	shared.Aggregate
	Name    string
	Email   string
	Phone   string
	Address string

	NetValue      decimal.Decimal
	PurchaseCount int
	ServiceCount  int

	// NeedsReconcile marks a customer whose aggregates may be wrong after a
	// failed compensation. Automated jobs skip flagged customers.
	NeedsReconcile bool
}

// Aggregates is the derived state of a customer.
type Aggregates struct {
	NetValue      decimal.Decimal `json:"net_value"`
	PurchaseCount int             `json:"purchase_count"`
	ServiceCount  int             `json:"service_count"`
}

// Equal compares aggregate values, ignoring decimal exponent differences.
func (a Aggregates) Equal(other Aggregates) bool {
	return a.NetValue.Equal(other.NetValue) &&
		a.PurchaseCount == other.PurchaseCount &&
		a.ServiceCount == other.ServiceCount
}

// NewCustomer creates a new customer with zeroed aggregates
func NewCustomer(name, email, phone, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("customer name cannot exceed 200 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.NewValidationError("invalid email address %q", email)
		}
	}
	phone = normalizePhone(phone)
	if phone != "" && (len(phone) < 7 || len(phone) > 20) {
		return nil, shared.NewValidationError("invalid phone number %q", phone)
	}

	c := &Customer{
		Aggregate: shared.NewAggregate(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Address:   strings.TrimSpace(address),
		NetValue:  decimal.Zero,
	}
	c.Record(NewCustomerRegisteredEvent(c))
	return c, nil
}

// Aggregates returns the current derived state
func (c *Customer) Aggregates() Aggregates {
	return Aggregates{
		NetValue:      c.NetValue,
		PurchaseCount: c.PurchaseCount,
		ServiceCount:  c.ServiceCount,
	}
}

// ApplyAggregates overwrites the derived fields and bumps the version.
// It reports whether anything changed.
func (c *Customer) ApplyAggregates(agg Aggregates) bool {
	prev := c.Aggregates()
	c.NetValue = agg.NetValue
	c.PurchaseCount = agg.PurchaseCount
	c.ServiceCount = agg.ServiceCount
	c.UpdatedAt = time.Now()
	c.BumpVersion()

	if prev.Equal(agg) {
		return false
	}
	c.Record(NewCustomerAggregatesChangedEvent(c, prev))
	return true
}

// ClearReconcileFlag marks the customer consistent again
func (c *Customer) ClearReconcileFlag() {
	c.NeedsReconcile = false
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
