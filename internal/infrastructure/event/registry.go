package event

import (
	"slices"
	"sync"

	"github.com/chronoshop/backend/internal/domain/shared"
)

// subscription is one handler and the event types it listens to. A nil
// type set means every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s *subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// subscriptions routes events to handlers in the order the handlers were
// first subscribed. Audit is subscribed before refresh in the server, so
// the audit line for an event is written before clients are told to
// reload.
type subscriptions struct {
	mu   sync.RWMutex
	list []*subscription
}

// add subscribes handler to eventTypes, widening an existing subscription
// rather than duplicating it. No types means all events.
func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.list, func(sub *subscription) bool { return sub.handler == handler })
	if i < 0 {
		s.list = append(s.list, &subscription{handler: handler, types: map[string]struct{}{}})
		i = len(s.list) - 1
	}
	sub := s.list[i]
	if len(eventTypes) == 0 {
		sub.types = nil
		return
	}
	if sub.types == nil {
		return
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = slices.DeleteFunc(s.list, func(sub *subscription) bool { return sub.handler == handler })
}

// handlersFor returns the handlers interested in eventType.
func (s *subscriptions) handlersFor(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []shared.EventHandler
	for _, sub := range s.list {
		if sub.matches(eventType) {
			out = append(out, sub.handler)
		}
	}
	return out
}

func (s *subscriptions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}
