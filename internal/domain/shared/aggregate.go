package shared

// Aggregate is embedded by customers, items, sales and services. Version
// increases with every persisted change to derived state and is what the
// stores compare for optimistic locking. Events recorded on the aggregate
// stay pending until the engine commits the unit of work and drains them.
type Aggregate struct {
	Identity
	Version int

	pending []DomainEvent
}

// NewAggregate starts a new aggregate at version 1.
func NewAggregate() Aggregate {
	return Aggregate{Identity: NewIdentity(), Version: 1}
}

// BumpVersion advances the optimistic-lock version. Callers own UpdatedAt
// since transitions stamp it with the clock they were given.
func (a *Aggregate) BumpVersion() {
	a.Version++
}

// Record queues an event for publication after commit.
func (a *Aggregate) Record(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the queued events without removing them.
func (a *Aggregate) PendingEvents() []DomainEvent {
	return a.pending
}

// DrainEvents returns the queued events and forgets them. A rolled-back
// unit of work drains and discards.
func (a *Aggregate) DrainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}
