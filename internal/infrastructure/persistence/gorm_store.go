package persistence

import (
	"context"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/finance"
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/chronoshop/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormStore is the transactional store. Execute runs the callback inside a
// database transaction and hands it repositories bound to that transaction.
type GormStore struct {
	gormRepositories
	database *Database
}

// NewGormStore creates a store over an open database
func NewGormStore(database *Database) *GormStore {
	return &GormStore{
		gormRepositories: gormRepositories{tx: database.DB},
		database:         database,
	}
}

// SupportsAtomicWrites is always true for SQL databases
func (s *GormStore) SupportsAtomicWrites() bool {
	return true
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormStore) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return s.database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// Close closes the underlying database
func (s *GormStore) Close() error {
	return s.database.Close()
}

// gormRepositories provides repositories bound to one *gorm.DB, either the
// pool or an open transaction.
type gormRepositories struct {
	tx *gorm.DB
}

// Customers returns the customer repository
func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Items returns the inventory item repository
func (r *gormRepositories) Items() inventory.ItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// Sales returns the sale repository
func (r *gormRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Services returns the repair service repository
func (r *gormRepositories) Services() repair.ServiceRepository {
	return NewGormServiceRepository(r.tx)
}

// Invoices returns the invoice repository
func (r *gormRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Expenses returns the expense repository
func (r *gormRepositories) Expenses() finance.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

// Ensure GormStore implements Store
var _ uow.Store = (*GormStore)(nil)

// Ensure gormRepositories implements Repositories
var _ uow.Repositories = (*gormRepositories)(nil)
