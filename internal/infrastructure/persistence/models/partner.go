package models

import (
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
// Email and phone are nullable so customers without them do not collide on
// the unique indexes.
type CustomerModel struct {
	AggregateModel
	Name           string          `gorm:"type:varchar(200);not null"`
	Email          *string         `gorm:"type:varchar(200);uniqueIndex:idx_customers_email"`
	Phone          *string         `gorm:"type:varchar(50);uniqueIndex:idx_customers_phone"`
	Address        string          `gorm:"type:text"`
	NetValue       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseCount  int             `gorm:"not null;default:0"`
	ServiceCount   int             `gorm:"not null;default:0"`
	NeedsReconcile bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		Aggregate:      m.toAggregate(),
		Name:           m.Name,
		Email:          derefString(m.Email),
		Phone:          derefString(m.Phone),
		Address:        m.Address,
		NetValue:       m.NetValue,
		PurchaseCount:  m.PurchaseCount,
		ServiceCount:   m.ServiceCount,
		NeedsReconcile: m.NeedsReconcile,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.fromAggregate(c.Aggregate)
	m.Name = c.Name
	m.Email = nullableString(c.Email)
	m.Phone = nullableString(c.Phone)
	m.Address = c.Address
	m.NetValue = c.NetValue
	m.PurchaseCount = c.PurchaseCount
	m.ServiceCount = c.ServiceCount
	m.NeedsReconcile = c.NeedsReconcile
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
