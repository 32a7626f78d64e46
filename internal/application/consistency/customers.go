package consistency

import (
	"context"
	"errors"
	"sync"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	auditPageSize    = 100
	auditConcurrency = 4
)

// deriveAggregates computes a customer's aggregates from its source rows
func deriveAggregates(ctx context.Context, repos uow.Repositories, customerID uuid.UUID) (partner.Aggregates, error) {
	salesTotal, err := repos.Sales().SumTotalByCustomer(ctx, customerID)
	if err != nil {
		return partner.Aggregates{}, err
	}
	purchases, err := repos.Sales().CountByCustomer(ctx, customerID)
	if err != nil {
		return partner.Aggregates{}, err
	}
	completed, err := repos.Services().SumCompletedCostByCustomer(ctx, customerID)
	if err != nil {
		return partner.Aggregates{}, err
	}
	services, err := repos.Services().CountByCustomer(ctx, customerID)
	if err != nil {
		return partner.Aggregates{}, err
	}
	return partner.Aggregates{
		NetValue:      salesTotal.Add(completed),
		PurchaseCount: int(purchases),
		ServiceCount:  int(services),
	}, nil
}

// refreshCustomer re-derives and stores a customer's aggregates. A
// concurrent writer bumps the version, in which case the derivation is
// repeated against the fresh row.
func (e *Engine) refreshCustomer(ctx context.Context, repos uow.Repositories, customerID uuid.UUID, clearFlag bool) (*partner.Customer, error) {
	for attempt := 0; attempt < e.refreshAttempts; attempt++ {
		customer, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		agg, err := deriveAggregates(ctx, repos, customerID)
		if err != nil {
			return nil, err
		}
		customer.ApplyAggregates(agg)
		if clearFlag {
			customer.ClearReconcileFlag()
		}
		err = repos.Customers().UpdateAggregates(ctx, customer)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return customer, nil
	}
	return nil, shared.ErrConcurrencyConflict
}

// refreshStep re-derives the aggregates of every listed customer. It has no
// compensation: the source-row compensations re-derive after undoing their
// own write, which restores the aggregates.
func (e *Engine) refreshStep(refreshed *[]*partner.Customer, customerIDs ...uuid.UUID) uow.Step {
	return uow.Step{
		Name: "refresh_customer",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			for _, id := range customerIDs {
				customer, err := e.refreshCustomer(ctx, repos, id, false)
				if err != nil {
					return err
				}
				if refreshed != nil {
					*refreshed = append(*refreshed, customer)
				}
			}
			return nil
		},
	}
}

// rederive is the tail of every source-row compensation
func (e *Engine) rederive(ctx context.Context, repos uow.Repositories, customerIDs ...uuid.UUID) error {
	for _, id := range customerIDs {
		if _, err := e.refreshCustomer(ctx, repos, id, false); err != nil {
			return err
		}
	}
	return nil
}

// RegisterCustomer creates a customer with zeroed aggregates
func (e *Engine) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (customer *partner.Customer, err error) {
	defer func() { e.record(ctx, "customer.register", err) }()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	customer, err = partner.NewCustomer(req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}

	plan := uow.Plan{Event: "customer.register"}
	plan.Add(uow.Step{
		Name: "insert_customer",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			return repos.Customers().Insert(ctx, customer)
		},
	})
	if err := e.runner.Run(ctx, plan); err != nil {
		return nil, err
	}

	e.committed(ctx, []shared.EntityType{shared.EntityCustomer}, customer.DrainEvents()...)
	return customer, nil
}

// RemoveCustomer deletes a customer that no sale or service references
func (e *Engine) RemoveCustomer(ctx context.Context, customerID uuid.UUID) (err error) {
	defer func() { e.record(ctx, "customer.remove", err) }()

	plan := uow.Plan{Event: "customer.remove"}
	plan.Add(uow.Step{
		Name: "delete_customer",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			sales, err := repos.Sales().CountByCustomer(ctx, customerID)
			if err != nil {
				return err
			}
			services, err := repos.Services().CountByCustomer(ctx, customerID)
			if err != nil {
				return err
			}
			if sales > 0 || services > 0 {
				return shared.NewConflictError("customer has %d sales and %d services and cannot be removed", sales, services)
			}
			n, err := repos.Customers().Delete(ctx, customerID)
			if err != nil {
				return err
			}
			if n == 0 {
				return shared.NewNotFoundError(shared.EntityCustomer, customerID)
			}
			return nil
		},
	})
	if err := e.runner.Run(ctx, plan); err != nil {
		return err
	}

	e.committed(ctx, []shared.EntityType{shared.EntityCustomer}, partner.NewCustomerRemovedEvent(customerID))
	return nil
}

// RecomputeCustomerNetValue re-derives a customer's aggregates from its
// sales and services and clears the reconciliation flag
func (e *Engine) RecomputeCustomerNetValue(ctx context.Context, customerID uuid.UUID) (customer *partner.Customer, err error) {
	defer func() { e.record(ctx, "customer.recompute", err) }()

	plan := uow.Plan{Event: "customer.recompute"}
	plan.Add(uow.Step{
		Name: "recompute_customer",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			c, err := e.refreshCustomer(ctx, repos, customerID, true)
			if err != nil {
				return err
			}
			customer = c
			return nil
		},
	})
	if err := e.runner.Run(ctx, plan); err != nil {
		return nil, err
	}

	e.committed(ctx, []shared.EntityType{shared.EntityCustomer}, customer.DrainEvents()...)
	return customer, nil
}

func aggregatesKey(customerID uuid.UUID) string {
	return "aggregates:" + customerID.String()
}

// GetCustomerAggregates returns the stored aggregates, through the cache
func (e *Engine) GetCustomerAggregates(ctx context.Context, customerID uuid.UUID) (*partner.Aggregates, error) {
	return shared.ReadThrough(ctx, e.cache, shared.EntityCustomer, aggregatesKey(customerID),
		func(ctx context.Context) (*partner.Aggregates, error) {
			customer, err := e.store.Customers().FindByID(ctx, customerID)
			if err != nil {
				return nil, err
			}
			agg := customer.Aggregates()
			return &agg, nil
		})
}

// VerifyCustomer compares stored and derived aggregates without writing
func (e *Engine) VerifyCustomer(ctx context.Context, customerID uuid.UUID) (Drift, error) {
	customer, err := e.store.Customers().FindByID(ctx, customerID)
	if err != nil {
		return Drift{}, err
	}
	return e.verify(ctx, customer)
}

func (e *Engine) verify(ctx context.Context, customer *partner.Customer) (Drift, error) {
	derived, err := deriveAggregates(ctx, e.store, customer.ID)
	if err != nil {
		return Drift{}, err
	}
	return Drift{
		CustomerID: customer.ID,
		Stored:     customer.Aggregates(),
		Derived:    derived,
		Flagged:    customer.NeedsReconcile,
	}, nil
}

// AuditAggregates verifies every customer and returns those whose stored
// aggregates differ from the derived ones
func (e *Engine) AuditAggregates(ctx context.Context) ([]Drift, error) {
	var (
		mu     sync.Mutex
		drifts []Drift
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)

	q := shared.FirstPage(auditPageSize)
	q.Ascending = true
	for {
		customers, err := e.store.Customers().FindAll(ctx, q)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		for i := range customers {
			customer := customers[i]
			g.Go(func() error {
				drift, err := e.verify(gctx, &customer)
				if err != nil {
					return err
				}
				if drift.HasDrift() {
					mu.Lock()
					drifts = append(drifts, drift)
					mu.Unlock()
				}
				return nil
			})
		}
		if q.Last(len(customers)) {
			break
		}
		q = q.Next()
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drifts, nil
}
