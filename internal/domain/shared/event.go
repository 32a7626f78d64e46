package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate and published only after
// the unit of work that produced it committed.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// TouchedEntities is implemented by events that change more than their own
// aggregate, so refresh subscribers can notify every affected collection.
type TouchedEntities interface {
	Touched() []EntityType
}

// EventHeader is embedded by every concrete event and satisfies
// DomainEvent for it.
type EventHeader struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	At      time.Time `json:"timestamp"`
	Subject uuid.UUID `json:"aggregate_id"`
	Kind    string    `json:"aggregate_type"`
}

// NewEventHeader stamps a new event of eventType about the aggregate id of
// the given kind.
func NewEventHeader(eventType, kind string, id uuid.UUID) EventHeader {
	return EventHeader{ID: uuid.New(), Type: eventType, At: time.Now(), Subject: id, Kind: kind}
}

func (h *EventHeader) EventID() uuid.UUID     { return h.ID }
func (h *EventHeader) EventType() string      { return h.Type }
func (h *EventHeader) OccurredAt() time.Time  { return h.At }
func (h *EventHeader) AggregateID() uuid.UUID { return h.Subject }
func (h *EventHeader) AggregateType() string  { return h.Kind }

// EventHandler reacts to published events. An empty EventTypes means every
// event. Handler errors are logged by the bus and never reach the
// operation that published.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what the engine needs from the bus.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the full bus owned by the process wiring.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
