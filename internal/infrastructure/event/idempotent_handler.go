package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDedupWindow is how long a handled key is remembered
const DefaultDedupWindow = 10 * time.Minute

// DedupStats counts what an IdempotentHandler did
type DedupStats struct {
	Handled    int64 `json:"handled"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler delivers each fact to the wrapped handler once, keyed by
// shared.DeduplicationKey. If the store is unreachable the event is handled
// anyway: a duplicate audit line is better than a missing one.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	window  time.Duration
	logger  *zap.Logger

	handled    atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewIdempotentHandler wraps handler. A non-positive window uses
// DefaultDedupWindow.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, window time.Duration, logger *zap.Logger) *IdempotentHandler {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &IdempotentHandler{handler: handler, store: store, window: window, logger: logger}
}

// EventTypes forwards the wrapped handler's subscription
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle implements shared.EventHandler
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := shared.DeduplicationKey(event)

	first, err := h.store.MarkProcessed(ctx, key, h.window)
	switch {
	case err != nil:
		h.logger.Warn("dedup store unavailable, handling event anyway",
			zap.String("event_type", event.EventType()),
			zap.String("key", key),
			zap.Error(err))
	case !first:
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_type", event.EventType()),
			zap.String("key", key))
		return nil
	}

	// The key stays marked on failure, so a redelivery inside the window
	// is dropped.
	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.handled.Add(1)
	return nil
}

// Stats returns a snapshot of the counters
func (h *IdempotentHandler) Stats() DedupStats {
	return DedupStats{
		Handled:    h.handled.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
