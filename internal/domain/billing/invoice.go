package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType represents the invoice category
type InvoiceType string

const (
	InvoiceTypeSales                  InvoiceType = "Sales"
	InvoiceTypeServiceAcknowledgement InvoiceType = "ServiceAcknowledgement"
	InvoiceTypeServiceCompletion      InvoiceType = "ServiceCompletion"
)

// Prefix returns the invoice number prefix for the type
func (t InvoiceType) Prefix() string {
	switch t {
	case InvoiceTypeServiceAcknowledgement:
		return "ACK"
	case InvoiceTypeServiceCompletion:
		return "SVC"
	default:
		return "SAL"
	}
}

// InvoiceStatus represents the payment status of an invoice.
// Status changes after issue are not driven by the consistency engine.
type InvoiceStatus string

const (
	InvoiceStatusIssued InvoiceStatus = "issued"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoid   InvoiceStatus = "void"
)

// Invoice is a generated document linked to a sale or service
type Invoice struct {
	shared.Identity
	InvoiceNo   string
	Type        InvoiceType
	RelatedID   uuid.UUID
	RelatedType shared.EntityType
	CustomerID  uuid.UUID
	Amount      decimal.Decimal
	Status      InvoiceStatus
}

// NewInvoice creates an issued invoice for the related entity
func NewInvoice(related RelatedEntity, issuedAt time.Time) (*Invoice, error) {
	if !related.Kind.IsValid() {
		return nil, shared.NewValidationError("unknown document kind %q", related.Kind)
	}
	if related.ID == uuid.Nil {
		return nil, shared.NewValidationError("document must reference an entity")
	}
	if related.Amount.IsNegative() {
		return nil, shared.NewValidationError("invoice amount cannot be negative")
	}

	invoiceType := related.Kind.InvoiceType()
	inv := &Invoice{
		Identity:    shared.NewIdentity(),
		Type:        invoiceType,
		RelatedID:   related.ID,
		RelatedType: related.Type(),
		CustomerID:  related.CustomerID,
		Amount:      related.Amount,
		Status:      InvoiceStatusIssued,
	}
	inv.InvoiceNo = GenerateInvoiceNo(invoiceType, issuedAt, inv.ID)
	return inv, nil
}

// GenerateInvoiceNo builds <PREFIX>-YYYYMMDD-<6 hex>
func GenerateInvoiceNo(t InvoiceType, issuedAt time.Time, seed uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(seed.String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", t.Prefix(), issuedAt.Format("20060102"), suffix)
}

// Renumber assigns a fresh invoice number after a uniqueness collision
func (i *Invoice) Renumber(issuedAt time.Time) {
	i.InvoiceNo = GenerateInvoiceNo(i.Type, issuedAt, uuid.New())
}
