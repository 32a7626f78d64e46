package models

import (
	"time"

	"github.com/chronoshop/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense entity.
type ExpenseModel struct {
	BaseModel
	Category    string          `gorm:"type:varchar(50);not null;index"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAt      time.Time       `gorm:"not null;index"`
	PaymentMode string          `gorm:"type:varchar(30)"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		Identity:    m.toIdentity(),
		Category:    m.Category,
		Description: m.Description,
		Amount:      m.Amount,
		PaidAt:      m.PaidAt,
		PaymentMode: m.PaymentMode,
	}
}

// FromDomain populates the persistence model from a domain Expense entity.
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.fromIdentity(e.Identity)
	m.Category = e.Category
	m.Description = e.Description
	m.Amount = e.Amount
	m.PaidAt = e.PaidAt
	m.PaymentMode = e.PaymentMode
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense entity.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}
