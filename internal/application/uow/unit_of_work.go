// Package uow groups the repository writes of one business event so that
// they take effect together or not at all.
//
// Stores with real transactions run every step inside one transaction. Stores
// without multi-statement atomicity run the steps one by one and undo the
// applied ones with compensating writes when a later step fails.
package uow

import (
	"context"

	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/finance"
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/domain/trade"
)

// Repositories provides access to all repositories. Inside Store.Execute the
// returned repositories share the store's transaction, if it has one.
type Repositories interface {
	Customers() partner.CustomerRepository
	Items() inventory.ItemRepository
	Sales() trade.SaleRepository
	Services() repair.ServiceRepository
	Invoices() billing.InvoiceRepository
	Expenses() finance.ExpenseRepository
}

// Store is a persistence backend.
type Store interface {
	Repositories
	shared.Closeable

	// SupportsAtomicWrites reports whether Execute runs fn as a single
	// all-or-nothing transaction.
	SupportsAtomicWrites() bool

	// Execute runs fn against the store. If the store supports atomic
	// writes, fn runs in a transaction that is rolled back when fn returns
	// an error. Otherwise every write inside fn takes effect immediately.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Step is one ordered write of a unit of work.
type Step struct {
	Name string

	// Apply performs the write. Returning Violation(err) signals that the
	// write landed but broke a postcondition, so it must be compensated too.
	Apply func(ctx context.Context, repos Repositories) error

	// Compensate undoes a successful Apply. Nil means nothing to undo.
	Compensate func(ctx context.Context, repos Repositories) error
}

// Plan is the full set of steps for one business event.
type Plan struct {
	Event string
	Steps []Step

	// Snapshot captures the state of the touched entities for partial
	// failure reports. Optional.
	Snapshot func(ctx context.Context, repos Repositories) map[string]any
}

// Add appends steps to the plan
func (p *Plan) Add(steps ...Step) {
	p.Steps = append(p.Steps, steps...)
}

// PostconditionError wraps the error of a step whose write was applied but
// left the store in a state that must not persist (e.g. negative stock).
type PostconditionError struct {
	Err error
}

// Violation marks err as a postcondition failure of an applied write
func Violation(err error) error {
	return &PostconditionError{Err: err}
}

// Error implements the error interface
func (e *PostconditionError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *PostconditionError) Unwrap() error {
	return e.Err
}
