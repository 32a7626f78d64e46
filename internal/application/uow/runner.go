package uow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chronoshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultCompensationAttempts = 3
	defaultCompensationBackoff  = 20 * time.Millisecond
)

// Runner executes plans against a store, choosing the transactional or the
// compensating strategy from the store's capabilities.
type Runner struct {
	store                Store
	logger               *zap.Logger
	compensationAttempts int
	compensationBackoff  time.Duration
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the runner logger
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCompensationRetry sets how often a failing compensating write is
// retried before the unit of work is declared a partial failure.
func WithCompensationRetry(attempts int, interval time.Duration) RunnerOption {
	return func(r *Runner) {
		if attempts > 0 {
			r.compensationAttempts = attempts
		}
		if interval > 0 {
			r.compensationBackoff = interval
		}
	}
}

// NewRunner creates a Runner for store
func NewRunner(store Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:                store,
		logger:               zap.NewNop(),
		compensationAttempts: defaultCompensationAttempts,
		compensationBackoff:  defaultCompensationBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying store
func (r *Runner) Store() Store {
	return r.store
}

// Run executes the plan. On failure the store is left as it was before Run,
// or a *shared.PartialFailureError is returned if that could not be achieved.
func (r *Runner) Run(ctx context.Context, plan Plan) error {
	if r.store.SupportsAtomicWrites() {
		return r.runAtomic(ctx, plan)
	}
	return r.runCompensating(ctx, plan)
}

func (r *Runner) runAtomic(ctx context.Context, plan Plan) error {
	err := r.store.Execute(ctx, func(repos Repositories) error {
		for _, step := range plan.Steps {
			if err := step.Apply(ctx, repos); err != nil {
				r.logger.Debug("unit of work step failed, rolling back",
					zap.String("event", plan.Event),
					zap.String("step", step.Name),
					zap.Error(err))
				return err
			}
		}
		return nil
	})
	return stripViolation(err)
}

func (r *Runner) runCompensating(ctx context.Context, plan Plan) error {
	var before map[string]any
	if plan.Snapshot != nil {
		before = plan.Snapshot(ctx, r.store)
	}

	applied := make([]Step, 0, len(plan.Steps))
	var failed Step
	err := r.store.Execute(ctx, func(repos Repositories) error {
		for _, step := range plan.Steps {
			if err := step.Apply(ctx, repos); err != nil {
				var pv *PostconditionError
				if errors.As(err, &pv) {
					applied = append(applied, step)
				}
				failed = step
				return err
			}
			applied = append(applied, step)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	compErrs := r.compensate(context.WithoutCancel(ctx), plan.Event, applied)
	if len(compErrs) == 0 {
		r.logger.Warn("unit of work compensated",
			zap.String("event", plan.Event),
			zap.String("failed_step", failed.Name),
			zap.Int("compensated_steps", len(applied)),
			zap.Error(err))
		return stripViolation(err)
	}

	pf := &shared.PartialFailureError{
		Event:              plan.Event,
		FailedStep:         failed.Name,
		Cause:              stripViolation(err),
		CompensationErrors: compErrs,
		Before:             before,
	}
	if plan.Snapshot != nil {
		pf.After = plan.Snapshot(context.WithoutCancel(ctx), r.store)
	}
	r.logger.Error("unit of work partial failure",
		zap.String("event", pf.Event),
		zap.String("failed_step", pf.FailedStep),
		zap.Error(pf.Cause),
		zap.Errors("compensation_errors", compErrs),
		zap.Any("before", pf.Before),
		zap.Any("after", pf.After))
	return pf
}

// compensate undoes applied steps in reverse order. It keeps going after a
// failed compensation so as much as possible is restored.
func (r *Runner) compensate(ctx context.Context, event string, applied []Step) []error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if step.Compensate == nil {
			continue
		}
		op := func() error {
			err := step.Compensate(ctx, r.store)
			if err != nil && !shared.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(r.compensationBackoff), uint64(r.compensationAttempts-1)),
			ctx,
		)
		if err := backoff.Retry(op, policy); err != nil {
			r.logger.Error("compensating write failed",
				zap.String("event", event),
				zap.String("step", step.Name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errs
}

func stripViolation(err error) error {
	var pv *PostconditionError
	if errors.As(err, &pv) {
		return pv.Err
	}
	return err
}
