package models

import (
	"time"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale entity.
type SaleModel struct {
	AggregateModel
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountType   string          `gorm:"type:varchar(20);not null;default:'none'"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentMethod  string          `gorm:"type:varchar(30)"`
	SoldAt         time.Time       `gorm:"not null"`
	InvoiceID      *uuid.UUID      `gorm:"type:uuid"`
	InvoiceStatus  string          `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		Aggregate:  m.toAggregate(),
		CustomerID: m.CustomerID,
		ItemID:     m.ItemID,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		Subtotal:   m.Subtotal,
		Discount:   trade.Discount{
			Type:   trade.DiscountType(m.DiscountType),
			Value:  m.DiscountValue,
			Amount: m.DiscountAmount,
		},
		TotalAmount:   m.TotalAmount,
		PaymentMethod: m.PaymentMethod,
		SoldAt:        m.SoldAt,
		InvoiceID:     m.InvoiceID,
		InvoiceStatus: billing.DocumentStatus(m.InvoiceStatus),
	}
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.fromAggregate(s.Aggregate)
	m.CustomerID = s.CustomerID
	m.ItemID = s.ItemID
	m.Quantity = s.Quantity
	m.UnitPrice = s.UnitPrice
	m.Subtotal = s.Subtotal
	m.DiscountType = string(s.Discount.Type)
	m.DiscountValue = s.Discount.Value
	m.DiscountAmount = s.Discount.Amount
	m.TotalAmount = s.TotalAmount
	m.PaymentMethod = s.PaymentMethod
	m.SoldAt = s.SoldAt
	m.InvoiceID = s.InvoiceID
	m.InvoiceStatus = string(s.InvoiceStatus)
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
