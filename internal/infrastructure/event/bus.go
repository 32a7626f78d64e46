package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/chronoshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop in async mode
var ErrBusStopped = errors.New("event bus stopped")

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus delivers domain events to registered handlers. By default
// delivery is synchronous. In async mode a single worker delivers events in
// publish order, so slow handlers never hold up a business event.
type InMemoryEventBus struct {
	subs    subscriptions
	logger  *zap.Logger
	running atomic.Bool
	wg      sync.WaitGroup

	async bool
	queue chan envelope
	mu    sync.RWMutex
}

// BusOption configures the bus
type BusOption func(*InMemoryEventBus)

// WithAsyncDelivery queues events in a buffer of the given size
func WithAsyncDelivery(buffer int) BusOption {
	return func(b *InMemoryEventBus) {
		if buffer <= 0 {
			buffer = 256
		}
		b.async = true
		b.queue = make(chan envelope, buffer)
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	b := &InMemoryEventBus{logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands events to their handlers. Handler errors are logged and
// never returned: publishing happens after the business event committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.async {
		for _, event := range events {
			b.deliver(ctx, event)
		}
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		return ErrBusStopped
	}
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- envelope{ctx: detached, event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
}

// Start starts the bus and, in async mode, its delivery worker
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running.Swap(true) {
		return nil
	}
	if b.async {
		b.wg.Add(1)
		go b.worker()
	}
	b.logger.Info("event bus started", zap.Bool("async", b.async))
	return nil
}

// Stop stops accepting events and waits for queued ones to be delivered
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	wasRunning := b.running.Swap(false)
	if wasRunning && b.async {
		close(b.queue)
	}
	b.mu.Unlock()
	if !wasRunning {
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the bus
func (b *InMemoryEventBus) Close() error {
	return b.Stop(context.Background())
}

func (b *InMemoryEventBus) worker() {
	defer b.wg.Done()
	for env := range b.queue {
		b.deliver(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, event shared.DomainEvent) {
	for _, handler := range b.subs.handlersFor(event.EventType()) {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatchToHandler shields the bus from panicking handlers
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, event)
}

var (
	_ shared.EventBus  = (*InMemoryEventBus)(nil)
	_ shared.Closeable = (*InMemoryEventBus)(nil)
)
