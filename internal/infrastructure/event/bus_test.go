package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.EventHeader
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		EventHeader: shared.NewEventHeader(eventType, "TestAggregate", uuid.New()),
		Data:        "test data",
	}
}

type testHandler struct {
	eventTypes []string
	err        error
	panics     bool
	delay      time.Duration

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("sale.recorded")
	bus.Subscribe(handler)

	event := newTestEvent("sale.recorded")
	require.NoError(t, bus.Publish(context.Background(), event, newTestEvent("sale.reversed")))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("a"), newTestEvent("b")))
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("x")
	failing.err = errors.New("boom")
	panicking := newTestHandler("x")
	panicking.panics = true
	healthy := newTestHandler("x")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	assert.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("x")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_AsyncDeliversInOrderAndDrainsOnStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDelivery(16))
	handler := newTestHandler()
	handler.delay = time.Millisecond
	bus.Subscribe(handler)
	require.NoError(t, bus.Start(context.Background()))

	events := []shared.DomainEvent{newTestEvent("1"), newTestEvent("2"), newTestEvent("3")}
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, events...))
	cancel()

	require.NoError(t, bus.Stop(context.Background()))
	assert.Equal(t, events, handler.getHandled())

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("4")), ErrBusStopped)
	assert.NoError(t, bus.Stop(context.Background()))
}
