package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event keys were already handled.
// MarkProcessed is an atomic check-and-set: it returns true only for the
// first caller within ttl.
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Deduplicated is implemented by events that can be published more than once
// for the same fact, for example when two dispatchers race to issue one
// document. Such events share a key even though their EventIDs differ.
type Deduplicated interface {
	DeduplicationKey() string
}

// DeduplicationKey returns the event's own key when it has one, and its
// EventID otherwise.
func DeduplicationKey(event DomainEvent) string {
	if d, ok := event.(Deduplicated); ok {
		if key := d.DeduplicationKey(); key != "" {
			return key
		}
	}
	return event.EventID().String()
}
