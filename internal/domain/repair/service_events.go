package repair

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeService is the aggregate type for repair services
const AggregateTypeService = "Service"

// Event type constants
const (
	EventTypeServiceRecorded      = "service.recorded"
	EventTypeServiceStatusChanged = "service.status_changed"
	EventTypeServiceCompleted     = "service.completed"
	EventTypeServiceReversed      = "service.reversed"
)

var (
	serviceTouches         = []shared.EntityType{shared.EntityService}
	serviceCustomerTouches = []shared.EntityType{shared.EntityService, shared.EntityCustomer}
)

// ServiceRecordedEvent is published after a ticket is opened
type ServiceRecordedEvent struct {
	shared.EventHeader
	ServiceID  uuid.UUID `json:"service_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	WatchBrand string    `json:"watch_brand"`
}

// NewServiceRecordedEvent creates a new ServiceRecordedEvent
func NewServiceRecordedEvent(s *Service) *ServiceRecordedEvent {
	return &ServiceRecordedEvent{
		EventHeader: shared.NewEventHeader(EventTypeServiceRecorded, AggregateTypeService, s.ID),
		ServiceID:   s.ID,
		CustomerID:  s.CustomerID,
		WatchBrand:  s.WatchBrand,
	}
}

// Touched implements shared.TouchedEntities
func (e *ServiceRecordedEvent) Touched() []shared.EntityType { return serviceCustomerTouches }

// ServiceStatusChangedEvent is published on every lifecycle transition
type ServiceStatusChangedEvent struct {
	shared.EventHeader
	ServiceID  uuid.UUID `json:"service_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
}

// NewServiceStatusChangedEvent creates a new ServiceStatusChangedEvent
func NewServiceStatusChangedEvent(s *Service, from Status) *ServiceStatusChangedEvent {
	return &ServiceStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeServiceStatusChanged, AggregateTypeService, s.ID),
		ServiceID:   s.ID,
		CustomerID:  s.CustomerID,
		From:        from,
		To:          s.Status,
	}
}

// Touched implements shared.TouchedEntities
func (e *ServiceStatusChangedEvent) Touched() []shared.EntityType {
	if e.To == StatusCompleted {
		return serviceCustomerTouches
	}
	return serviceTouches
}

// ServiceCompletedEvent is published when a ticket completes
type ServiceCompletedEvent struct {
	shared.EventHeader
	ServiceID      uuid.UUID       `json:"service_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	FinalCost      decimal.Decimal `json:"final_cost"`
	WarrantyPeriod int             `json:"warranty_period"`
}

// NewServiceCompletedEvent creates a new ServiceCompletedEvent
func NewServiceCompletedEvent(s *Service) *ServiceCompletedEvent {
	return &ServiceCompletedEvent{
		EventHeader:    shared.NewEventHeader(EventTypeServiceCompleted, AggregateTypeService, s.ID),
		ServiceID:      s.ID,
		CustomerID:     s.CustomerID,
		FinalCost:      s.Cost,
		WarrantyPeriod: s.WarrantyPeriod,
	}
}

// Touched implements shared.TouchedEntities
func (e *ServiceCompletedEvent) Touched() []shared.EntityType { return serviceCustomerTouches }

// ServiceReversedEvent is published after a ticket is deleted
type ServiceReversedEvent struct {
	shared.EventHeader
	ServiceID  uuid.UUID       `json:"service_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	WasStatus  Status          `json:"was_status"`
	Cost       decimal.Decimal `json:"cost"`
}

// NewServiceReversedEvent creates a new ServiceReversedEvent
func NewServiceReversedEvent(s *Service) *ServiceReversedEvent {
	return &ServiceReversedEvent{
		EventHeader: shared.NewEventHeader(EventTypeServiceReversed, AggregateTypeService, s.ID),
		ServiceID:   s.ID,
		CustomerID:  s.CustomerID,
		WasStatus:   s.Status,
		Cost:        s.Cost,
	}
}

// Touched implements shared.TouchedEntities
func (e *ServiceReversedEvent) Touched() []shared.EntityType { return serviceCustomerTouches }
