package models

import (
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice entity. At most one
// invoice of each type exists per related entity.
type InvoiceModel struct {
	BaseModel
	InvoiceNo   string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoices_invoice_no"`
	Type        string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoices_related_type,priority:2"`
	RelatedID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_related_type,priority:1"`
	RelatedType string          `gorm:"type:varchar(20);not null"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status      string          `gorm:"type:varchar(20);not null;default:'issued'"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		Identity:    m.toIdentity(),
		InvoiceNo:   m.InvoiceNo,
		Type:        billing.InvoiceType(m.Type),
		RelatedID:   m.RelatedID,
		RelatedType: shared.EntityType(m.RelatedType),
		CustomerID:  m.CustomerID,
		Amount:      m.Amount,
		Status:      billing.InvoiceStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.fromIdentity(i.Identity)
	m.InvoiceNo = i.InvoiceNo
	m.Type = string(i.Type)
	m.RelatedID = i.RelatedID
	m.RelatedType = string(i.RelatedType)
	m.CustomerID = i.CustomerID
	m.Amount = i.Amount
	m.Status = string(i.Status)
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}
