package partner

import (
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerRegistered        = "customer.registered"
	EventTypeCustomerAggregatesChanged = "customer.aggregates_changed"
	EventTypeCustomerRemoved           = "customer.removed"
)

// CustomerRegisteredEvent is published when a new customer is created
type CustomerRegisteredEvent struct {
	shared.EventHeader
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		EventHeader: shared.NewEventHeader(EventTypeCustomerRegistered, AggregateTypeCustomer, c.ID),
		CustomerID:  c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
	}
}

// CustomerAggregatesChangedEvent is published when derived fields change
type CustomerAggregatesChangedEvent struct {
	shared.EventHeader
	CustomerID uuid.UUID  `json:"customer_id"`
	Previous   Aggregates `json:"previous"`
	Current    Aggregates `json:"current"`
}

// NewCustomerAggregatesChangedEvent creates a new CustomerAggregatesChangedEvent
func NewCustomerAggregatesChangedEvent(c *Customer, prev Aggregates) *CustomerAggregatesChangedEvent {
	return &CustomerAggregatesChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeCustomerAggregatesChanged, AggregateTypeCustomer, c.ID),
		CustomerID:  c.ID,
		Previous:    prev,
		Current:     c.Aggregates(),
	}
}

// CustomerRemovedEvent is published when a customer without history is deleted
type CustomerRemovedEvent struct {
	shared.EventHeader
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewCustomerRemovedEvent creates a new CustomerRemovedEvent
func NewCustomerRemovedEvent(id uuid.UUID) *CustomerRemovedEvent {
	return &CustomerRemovedEvent{
		EventHeader: shared.NewEventHeader(EventTypeCustomerRemoved, AggregateTypeCustomer, id),
		CustomerID:  id,
	}
}
