package document

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReconcilerConfig holds configuration for the reconciler
type ReconcilerConfig struct {
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

// DefaultReconcilerConfig returns default configuration
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval:    time.Minute,
		BatchSize:   50,
		Concurrency: 4,
	}
}

// ReconcileResult summarizes one reconciliation pass
type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Issued  int `json:"issued"`
	Pending int `json:"pending"`
	Skipped int `json:"skipped"`
}

// dispatcher is the part of Dispatcher the reconciler needs
type dispatcher interface {
	Dispatch(ctx context.Context, req billing.RelatedEntity) Outcome
}

// Reconciler periodically re-dispatches documents left pending. Entities
// belonging to a customer flagged for manual reconciliation are skipped.
type Reconciler struct {
	dispatcher dispatcher
	repos      uow.Repositories
	config     ReconcilerConfig
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates a new reconciler
func NewReconciler(d dispatcher, repos uow.Repositories, config ReconcilerConfig, logger *zap.Logger) *Reconciler {
	defaults := DefaultReconcilerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	return &Reconciler{
		dispatcher: d,
		repos:      repos,
		config:     config,
		logger:     logger,
	}
}

// Start starts the background loop
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("document reconciler started",
		zap.Int("batch_size", r.config.BatchSize),
		zap.Duration("interval", r.config.Interval),
	)
	return nil
}

// Stop gracefully stops the loop
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("document reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop, waiting at most five seconds
func (r *Reconciler) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Stop(ctx)
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := r.RunOnce(ctx)
			if err != nil {
				r.logger.Error("document reconciliation failed", zap.Error(err))
				continue
			}
			if result.Scanned > 0 {
				r.logger.Info("document reconciliation pass",
					zap.Int("scanned", result.Scanned),
					zap.Int("issued", result.Issued),
					zap.Int("pending", result.Pending),
					zap.Int("skipped", result.Skipped))
			}
		}
	}
}

// RunOnce scans one batch of pending documents and dispatches them with
// bounded concurrency
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	requests, owners, err := r.pendingRequests(ctx)
	if err != nil {
		return result, err
	}
	result.Scanned = len(requests)

	flagged := make(map[uuid.UUID]bool)
	for customerID := range owners {
		customer, err := r.repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			continue
		}
		if customer.NeedsReconcile {
			flagged[customerID] = true
		}
	}

	var issued, pending atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for _, req := range requests {
		if flagged[req.CustomerID] {
			result.Skipped++
			continue
		}
		g.Go(func() error {
			if r.dispatcher.Dispatch(gctx, req).Issued() {
				issued.Add(1)
			} else {
				pending.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Issued = int(issued.Load())
	result.Pending = int(pending.Load())
	return result, nil
}

func (r *Reconciler) pendingRequests(ctx context.Context) ([]billing.RelatedEntity, map[uuid.UUID]struct{}, error) {
	sales, err := r.repos.Sales().FindPendingInvoices(ctx, r.config.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	services, err := r.repos.Services().FindPendingDocuments(ctx, r.config.BatchSize)
	if err != nil {
		return nil, nil, err
	}

	owners := make(map[uuid.UUID]struct{})
	requests := make([]billing.RelatedEntity, 0, len(sales)+len(services))
	for i := range sales {
		requests = append(requests, sales[i].DocumentRequest())
		owners[sales[i].CustomerID] = struct{}{}
	}
	for i := range services {
		requests = append(requests, services[i].PendingDocuments()...)
		owners[services[i].CustomerID] = struct{}{}
	}
	return requests, owners, nil
}
