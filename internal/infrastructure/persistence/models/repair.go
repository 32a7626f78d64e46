package models

import (
	"time"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceModel is the persistence model for the repair Service entity.
type ServiceModel struct {
	AggregateModel
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	WatchBrand         string          `gorm:"type:varchar(100);not null"`
	WatchModel         string          `gorm:"type:varchar(100)"`
	SerialNumber       string          `gorm:"type:varchar(100)"`
	ProblemDescription string          `gorm:"type:text"`
	Cost               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status             string          `gorm:"type:varchar(20);not null;default:'pending';index"`

	ExpectedDelivery *time.Time
	StartedAt        *time.Time
	HeldAt           *time.Time
	CompletedAt      *time.Time
	ActualDelivery   *time.Time

	CompletionDescription string `gorm:"type:text"`
	WarrantyPeriod        int    `gorm:"not null;default:0"`
	AttachmentKey         string `gorm:"type:varchar(500)"`

	AcknowledgementInvoiceID *uuid.UUID `gorm:"type:uuid"`
	AcknowledgementStatus    string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	CompletionInvoiceID      *uuid.UUID `gorm:"type:uuid"`
	CompletionInvoiceStatus  string     `gorm:"type:varchar(20);not null;default:'none';index"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain Service entity.
func (m *ServiceModel) ToDomain() *repair.Service {
	return &repair.Service{
		Aggregate:                m.toAggregate(),
		CustomerID:               m.CustomerID,
		WatchBrand:               m.WatchBrand,
		WatchModel:               m.WatchModel,
		SerialNumber:             m.SerialNumber,
		ProblemDescription:       m.ProblemDescription,
		Cost:                     m.Cost,
		Status:                   repair.Status(m.Status),
		ExpectedDelivery:         m.ExpectedDelivery,
		StartedAt:                m.StartedAt,
		HeldAt:                   m.HeldAt,
		CompletedAt:              m.CompletedAt,
		ActualDelivery:           m.ActualDelivery,
		CompletionDescription:    m.CompletionDescription,
		WarrantyPeriod:           m.WarrantyPeriod,
		AttachmentKey:            m.AttachmentKey,
		AcknowledgementInvoiceID: m.AcknowledgementInvoiceID,
		AcknowledgementStatus:    billing.DocumentStatus(m.AcknowledgementStatus),
		CompletionInvoiceID:      m.CompletionInvoiceID,
		CompletionInvoiceStatus:  billing.DocumentStatus(m.CompletionInvoiceStatus),
	}
}

// FromDomain populates the persistence model from a domain Service entity.
func (m *ServiceModel) FromDomain(s *repair.Service) {
	m.fromAggregate(s.Aggregate)
	m.CustomerID = s.CustomerID
	m.WatchBrand = s.WatchBrand
	m.WatchModel = s.WatchModel
	m.SerialNumber = s.SerialNumber
	m.ProblemDescription = s.ProblemDescription
	m.Cost = s.Cost
	m.Status = string(s.Status)
	m.ExpectedDelivery = s.ExpectedDelivery
	m.StartedAt = s.StartedAt
	m.HeldAt = s.HeldAt
	m.CompletedAt = s.CompletedAt
	m.ActualDelivery = s.ActualDelivery
	m.CompletionDescription = s.CompletionDescription
	m.WarrantyPeriod = s.WarrantyPeriod
	m.AttachmentKey = s.AttachmentKey
	m.AcknowledgementInvoiceID = s.AcknowledgementInvoiceID
	m.AcknowledgementStatus = string(s.AcknowledgementStatus)
	m.CompletionInvoiceID = s.CompletionInvoiceID
	m.CompletionInvoiceStatus = string(s.CompletionInvoiceStatus)
}

// ServiceModelFromDomain creates a new persistence model from a domain Service entity.
func ServiceModelFromDomain(s *repair.Service) *ServiceModel {
	m := &ServiceModel{}
	m.FromDomain(s)
	return m
}
