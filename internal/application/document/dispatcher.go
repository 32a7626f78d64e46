// Package document issues the side-effect documents (sales invoices, service
// acknowledgements, completion invoices) owed by committed business events.
//
// Dispatch runs after the business event has committed. A failure leaves the
// entity's document status pending for the Reconciler to pick up; it never
// undoes the business event.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces a document for a related entity and returns its id.
// Implementations must be idempotent per (kind, related id).
type Generator interface {
	Generate(ctx context.Context, req billing.RelatedEntity) (uuid.UUID, error)
}

// Metrics records dispatch outcomes
type Metrics interface {
	RecordDocument(ctx context.Context, kind billing.DocumentKind, status billing.DocumentStatus)
}

// Outcome is the result of one dispatch. Err is informational: the caller's
// business event has already succeeded.
type Outcome struct {
	Kind       billing.DocumentKind
	RelatedID  uuid.UUID
	DocumentID uuid.UUID
	Status     billing.DocumentStatus
	Err        error
}

// Issued reports whether the document was generated and linked
func (o Outcome) Issued() bool {
	return o.Status == billing.DocumentStatusIssued
}

// Config holds dispatch timing
type Config struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultConfig returns default dispatch settings
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
	}
}

// Dispatcher calls the Generator with retries and links the result
type Dispatcher struct {
	generator Generator
	repos     uow.Repositories
	cache     shared.EntityCache
	events    shared.EventPublisher
	metrics   Metrics
	config    Config
	logger    *zap.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithConfig overrides the default timing
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		if cfg.Timeout > 0 {
			d.config.Timeout = cfg.Timeout
		}
		if cfg.MaxAttempts > 0 {
			d.config.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.InitialBackoff > 0 {
			d.config.InitialBackoff = cfg.InitialBackoff
		}
	}
}

// WithCache invalidates the related collections after a link
func WithCache(cache shared.EntityCache) Option {
	return func(d *Dispatcher) {
		d.cache = cache
	}
}

// WithEventPublisher publishes document.issued events
func WithEventPublisher(events shared.EventPublisher) Option {
	return func(d *Dispatcher) {
		d.events = events
	}
}

// WithMetrics records outcomes
func WithMetrics(metrics Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher that links documents through repos
func NewDispatcher(generator Generator, repos uow.Repositories, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		generator: generator,
		repos:     repos,
		config:    DefaultConfig(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch generates the document for req and records its id on the
// originating entity. The call is detached from the caller's cancellation
// and bounded by its own timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, req billing.RelatedEntity) Outcome {
	out := Outcome{Kind: req.Kind, RelatedID: req.ID, Status: billing.DocumentStatusPending}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.Timeout)
	defer cancel()

	docID, err := d.generate(ctx, req)
	if err == nil {
		err = d.link(ctx, req, docID)
	}
	if err != nil {
		out.Err = err
		d.logger.Warn("document left pending",
			zap.String("kind", string(req.Kind)),
			zap.String("related_id", req.ID.String()),
			zap.Error(err))
		d.record(ctx, req.Kind, out.Status)
		return out
	}

	out.DocumentID = docID
	out.Status = billing.DocumentStatusIssued
	d.record(ctx, req.Kind, out.Status)
	d.afterLink(ctx, req, docID)
	return out
}

func (d *Dispatcher) generate(ctx context.Context, req billing.RelatedEntity) (uuid.UUID, error) {
	op := func() (uuid.UUID, error) {
		id, err := d.generator.Generate(ctx, req)
		if err != nil && isPermanent(err) {
			return uuid.Nil, backoff.Permanent(err)
		}
		return id, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.config.MaxAttempts-1)), ctx)

	id, err := backoff.RetryWithData(op, policy)
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate %s: %w", req.Kind, err)
	}
	return id, nil
}

func (d *Dispatcher) link(ctx context.Context, req billing.RelatedEntity, docID uuid.UUID) error {
	var err error
	switch req.Kind {
	case billing.KindSalesInvoice:
		err = d.repos.Sales().AttachInvoice(ctx, req.ID, docID)
	case billing.KindServiceAcknowledgement:
		err = d.repos.Services().AttachAcknowledgement(ctx, req.ID, docID)
	case billing.KindServiceCompletionInvoice:
		err = d.repos.Services().AttachCompletionInvoice(ctx, req.ID, docID)
	default:
		err = shared.NewValidationError("unknown document kind %q", req.Kind)
	}
	if err != nil {
		return fmt.Errorf("link %s: %w", req.Kind, err)
	}
	return nil
}

func (d *Dispatcher) afterLink(ctx context.Context, req billing.RelatedEntity, docID uuid.UUID) {
	if d.cache != nil {
		for _, entity := range []shared.EntityType{req.Type(), shared.EntityInvoice} {
			if err := d.cache.InvalidateAll(ctx, entity); err != nil {
				d.logger.Warn("cache invalidation failed", zap.String("entity", entity.String()), zap.Error(err))
			}
		}
	}
	if d.events != nil {
		if err := d.events.Publish(ctx, billing.NewDocumentIssuedEvent(req, docID)); err != nil {
			d.logger.Warn("failed to publish document event", zap.Error(err))
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, kind billing.DocumentKind, status billing.DocumentStatus) {
	if d.metrics != nil {
		d.metrics.RecordDocument(ctx, kind, status)
	}
}

// isPermanent reports errors that a retry cannot fix
func isPermanent(err error) bool {
	return errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound)
}
