package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptions_RoutesByType(t *testing.T) {
	var s subscriptions
	sales := newTestHandler()
	everything := newTestHandler()

	s.add(sales, "sale.recorded", "sale.reversed")
	s.add(sales, "sale.recorded")
	s.add(everything)

	handlers := s.handlersFor("sale.recorded")
	assert.Len(t, handlers, 2)
	assert.Same(t, sales, handlers[0])
	assert.Same(t, everything, handlers[1])

	assert.Len(t, s.handlersFor("service.recorded"), 1)
	assert.Equal(t, 2, s.len())
}

func TestSubscriptions_KeepFirstSubscribeOrder(t *testing.T) {
	var s subscriptions
	audit := newTestHandler()
	refresh := newTestHandler()

	s.add(audit)
	s.add(refresh, "sale.recorded")
	s.add(audit, "sale.recorded")

	handlers := s.handlersFor("sale.recorded")
	assert.Same(t, audit, handlers[0])
	assert.Same(t, refresh, handlers[1])
}

func TestSubscriptions_WildcardWins(t *testing.T) {
	var s subscriptions
	h := newTestHandler()
	s.add(h, "x")
	s.add(h)
	s.add(h, "y")

	assert.Len(t, s.handlersFor("x"), 1)
	assert.Len(t, s.handlersFor("anything"), 1)
	assert.Equal(t, 1, s.len())
}

func TestSubscriptions_Remove(t *testing.T) {
	var s subscriptions
	a := newTestHandler()
	b := newTestHandler()
	s.add(a, "x", "y")
	s.add(b, "x")

	s.remove(a)

	assert.Len(t, s.handlersFor("x"), 1)
	assert.Empty(t, s.handlersFor("y"))
	assert.Equal(t, 1, s.len())
}
