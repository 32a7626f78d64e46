// Package consistency keeps the derived fields of customers and stock items
// in line with their sales and repair tickets.
//
// Every public operation is one business event. Its writes run as a
// uow.Plan in a fixed order: the source row (sale or service) first, then
// stock, then the customer aggregates. Customer aggregates are always
// re-derived from the source rows, never incremented, so a retried or
// compensated event cannot double count.
package consistency

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/chronoshop/backend/internal/application/document"
	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRefreshAttempts = 5

// DocumentDispatcher issues the documents owed after a committed event
type DocumentDispatcher interface {
	Dispatch(ctx context.Context, req billing.RelatedEntity) document.Outcome
}

// AttachmentStore keeps completion images and returns the stored key
type AttachmentStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// Metrics records engine outcomes
type Metrics interface {
	RecordOperation(ctx context.Context, operation string, err error)
	RecordPartialFailure(ctx context.Context, operation string)
}

// Engine runs the business events of the shop
type Engine struct {
	runner          *uow.Runner
	store           uow.Store
	cache           shared.EntityCache
	events          shared.EventPublisher
	documents       DocumentDispatcher
	attachments     AttachmentStore
	metrics         Metrics
	logger          *zap.Logger
	now             func() time.Time
	refreshAttempts int
	validate        *validator.Validate
}

// Option configures an Engine
type Option func(*Engine)

// WithCache sets the entity cache invalidated after each event
func WithCache(cache shared.EntityCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithEventPublisher publishes domain events after commit
func WithEventPublisher(events shared.EventPublisher) Option {
	return func(e *Engine) {
		e.events = events
	}
}

// WithDocumentDispatcher enables invoice and acknowledgement generation
func WithDocumentDispatcher(d DocumentDispatcher) Option {
	return func(e *Engine) {
		e.documents = d
	}
}

// WithAttachmentStore enables completion attachments
func WithAttachmentStore(s AttachmentStore) Option {
	return func(e *Engine) {
		e.attachments = s
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRefreshAttempts bounds the optimistic retries of an aggregate refresh
func WithRefreshAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.refreshAttempts = n
		}
	}
}

// NewEngine creates an Engine running its plans through runner
func NewEngine(runner *uow.Runner, opts ...Option) *Engine {
	e := &Engine{
		runner:          runner,
		store:           runner.Store(),
		logger:          zap.NewNop(),
		now:             time.Now,
		refreshAttempts: defaultRefreshAttempts,
		validate:        newValidator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// affected lists what an event touched, for post-commit work and for
// flagging after a partial failure
type affected struct {
	customers []uuid.UUID
	items     []uuid.UUID
}

func (a affected) entityTypes() []shared.EntityType {
	var out []shared.EntityType
	if len(a.customers) > 0 {
		out = append(out, shared.EntityCustomer)
	}
	if len(a.items) > 0 {
		out = append(out, shared.EntityInventoryItem)
	}
	return out
}

// run executes plan and, on a partial failure, flags the touched records so
// that automated jobs leave them alone until someone recomputes them
func (e *Engine) run(ctx context.Context, plan uow.Plan, touched affected) error {
	if plan.Snapshot == nil {
		plan.Snapshot = e.snapshot(touched)
	}
	err := e.runner.Run(ctx, plan)
	if err == nil {
		return nil
	}

	var pf *shared.PartialFailureError
	if errors.As(err, &pf) {
		detached := context.WithoutCancel(ctx)
		e.flag(detached, touched)
		// whatever the store holds now is not what the cache holds
		e.committed(detached, touched.entityTypes())
		if e.metrics != nil {
			e.metrics.RecordPartialFailure(ctx, plan.Event)
		}
	}
	return err
}

func (e *Engine) flag(ctx context.Context, touched affected) {
	for _, id := range touched.customers {
		if err := e.store.Customers().SetReconcileFlag(ctx, id, true); err != nil {
			e.logger.Error("failed to flag customer for reconciliation",
				zap.String("customer_id", id.String()), zap.Error(err))
		}
	}
	for _, id := range touched.items {
		if err := e.store.Items().SetReconcileFlag(ctx, id, true); err != nil {
			e.logger.Error("failed to flag item for reconciliation",
				zap.String("item_id", id.String()), zap.Error(err))
		}
	}
}

// snapshot records the aggregate fields of the touched records
func (e *Engine) snapshot(touched affected) func(ctx context.Context, repos uow.Repositories) map[string]any {
	return func(ctx context.Context, repos uow.Repositories) map[string]any {
		state := make(map[string]any, len(touched.customers)+len(touched.items))
		for _, id := range touched.customers {
			if c, err := repos.Customers().FindByID(ctx, id); err == nil {
				state["customer:"+id.String()] = c.Aggregates()
			}
		}
		for _, id := range touched.items {
			if item, err := repos.Items().FindByID(ctx, id); err == nil {
				state["item:"+id.String()] = map[string]any{
					"quantity": item.Quantity,
					"status":   item.Status,
				}
			}
		}
		return state
	}
}

// committed invalidates the touched caches and publishes events. Both are
// best effort: the event has already been stored.
func (e *Engine) committed(ctx context.Context, entities []shared.EntityType, events ...shared.DomainEvent) {
	if e.cache != nil {
		for _, entity := range entities {
			if err := e.cache.InvalidateAll(ctx, entity); err != nil {
				e.logger.Warn("cache invalidation failed",
					zap.String("entity", entity.String()), zap.Error(err))
			}
		}
	}
	if e.events != nil && len(events) > 0 {
		if err := e.events.Publish(ctx, events...); err != nil {
			e.logger.Warn("failed to publish domain events", zap.Error(err))
		}
	}
}

// dispatch asks for a document and returns the outcome. Without a
// dispatcher the document simply stays pending.
func (e *Engine) dispatch(ctx context.Context, req billing.RelatedEntity) document.Outcome {
	if e.documents == nil {
		return document.Outcome{Kind: req.Kind, RelatedID: req.ID, Status: billing.DocumentStatusPending}
	}
	return e.documents.Dispatch(ctx, req)
}

func (e *Engine) record(ctx context.Context, operation string, err error) {
	if e.metrics != nil {
		e.metrics.RecordOperation(ctx, operation, err)
	}
	if err != nil && !errors.Is(err, shared.ErrPartialFailure) {
		e.logger.Debug("operation rejected", zap.String("operation", operation), zap.Error(err))
	}
}
