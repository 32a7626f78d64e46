// Package memory is a process-local store without multi-statement
// atomicity. Every write takes effect immediately, so units of work running
// against it rely on compensating writes.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/finance"
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/repair"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Write operation names passed to the fault hook
const (
	OpCustomerInsert           = "customers.insert"
	OpCustomerUpdateAggregates = "customers.update_aggregates"
	OpCustomerSetReconcile     = "customers.set_reconcile_flag"
	OpCustomerDelete           = "customers.delete"
	OpItemInsert               = "items.insert"
	OpItemAdjustQuantity       = "items.adjust_quantity"
	OpItemSetReconcile         = "items.set_reconcile_flag"
	OpItemDelete               = "items.delete"
	OpSaleInsert               = "sales.insert"
	OpSaleDelete               = "sales.delete"
	OpSaleAttachInvoice        = "sales.attach_invoice"
	OpServiceInsert            = "services.insert"
	OpServiceUpdateLifecycle   = "services.update_lifecycle"
	OpServiceDelete            = "services.delete"
	OpServiceAttachDocument    = "services.attach_document"
	OpInvoiceInsert            = "invoices.insert"
	OpExpenseInsert            = "expenses.insert"
	OpExpenseDelete            = "expenses.delete"
)

// FaultFunc is consulted before every write. A non-nil error aborts the
// write and is returned to the caller.
type FaultFunc func(op string) error

// Store keeps every collection in maps guarded by one lock.
type Store struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]partner.Customer
	items     map[uuid.UUID]inventory.Item
	sales     map[uuid.UUID]trade.Sale
	services  map[uuid.UUID]repair.Service
	invoices  map[uuid.UUID]billing.Invoice
	expenses  map[uuid.UUID]finance.Expense
	fault     FaultFunc
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		customers: make(map[uuid.UUID]partner.Customer),
		items:     make(map[uuid.UUID]inventory.Item),
		sales:     make(map[uuid.UUID]trade.Sale),
		services:  make(map[uuid.UUID]repair.Service),
		invoices:  make(map[uuid.UUID]billing.Invoice),
		expenses:  make(map[uuid.UUID]finance.Expense),
	}
}

// SetFault installs a hook that can fail individual writes. Pass nil to
// remove it.
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

// SupportsAtomicWrites is false: writes are applied one at a time
func (s *Store) SupportsAtomicWrites() bool {
	return false
}

// Execute runs fn directly against the store
func (s *Store) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// Customers returns the customer repository
func (s *Store) Customers() partner.CustomerRepository { return customerRepo{s} }

// Items returns the inventory item repository
func (s *Store) Items() inventory.ItemRepository { return itemRepo{s} }

// Sales returns the sale repository
func (s *Store) Sales() trade.SaleRepository { return saleRepo{s} }

// Services returns the repair service repository
func (s *Store) Services() repair.ServiceRepository { return serviceRepo{s} }

// Invoices returns the invoice repository
func (s *Store) Invoices() billing.InvoiceRepository { return invoiceRepo{s} }

// Expenses returns the expense repository
func (s *Store) Expenses() finance.ExpenseRepository { return expenseRepo{s} }

// checkFault must be called with the write lock held
func (s *Store) checkFault(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.fault != nil {
		return s.fault(op)
	}
	return nil
}

func page[T any](list []T, q shared.ListQuery) []T {
	if q.Size <= 0 {
		return list
	}
	start := q.Offset()
	if start >= len(list) {
		return []T{}
	}
	end := min(start+q.Size, len(list))
	return list[start:end]
}

func byCreatedAt(desc bool) func(a, b time.Time) int {
	return func(a, b time.Time) int {
		if desc {
			return b.Compare(a)
		}
		return a.Compare(b)
	}
}

// ---- customers ----

type customerRepo struct{ s *Store }

func (r customerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntityCustomer, id)
	}
	return &c, nil
}

func (r customerRepo) FindAll(_ context.Context, q shared.ListQuery) ([]partner.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(q.Match))
	list := make([]partner.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(c.Email, search) && !strings.Contains(c.Phone, search) {
			continue
		}
		list = append(list, c)
	}
	cmp := byCreatedAt(!q.Ascending)
	slices.SortFunc(list, func(a, b partner.Customer) int { return cmp(a.CreatedAt, b.CreatedAt) })
	return page(list, q), nil
}

func (r customerRepo) Insert(ctx context.Context, customer *partner.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpCustomerInsert); err != nil {
		return err
	}
	if _, ok := r.s.customers[customer.ID]; ok {
		return shared.NewConflictError("customer %s already exists", customer.ID)
	}
	for _, existing := range r.s.customers {
		if (customer.Email != "" && existing.Email == customer.Email) ||
			(customer.Phone != "" && existing.Phone == customer.Phone) {
			return shared.NewConflictError("a customer with this email or phone already exists")
		}
	}
	stored := *customer
	stored.DrainEvents()
	r.s.customers[customer.ID] = stored
	return nil
}

func (r customerRepo) UpdateAggregates(ctx context.Context, customer *partner.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpCustomerUpdateAggregates); err != nil {
		return err
	}
	stored, ok := r.s.customers[customer.ID]
	if !ok {
		return shared.NewNotFoundError(shared.EntityCustomer, customer.ID)
	}
	if stored.Version != customer.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	stored.NetValue = customer.NetValue
	stored.PurchaseCount = customer.PurchaseCount
	stored.ServiceCount = customer.ServiceCount
	stored.NeedsReconcile = customer.NeedsReconcile
	stored.Version = customer.Version
	stored.UpdatedAt = customer.UpdatedAt
	r.s.customers[customer.ID] = stored
	return nil
}

func (r customerRepo) SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpCustomerSetReconcile); err != nil {
		return err
	}
	stored, ok := r.s.customers[id]
	if !ok {
		return shared.NewNotFoundError(shared.EntityCustomer, id)
	}
	stored.NeedsReconcile = flagged
	r.s.customers[id] = stored
	return nil
}

func (r customerRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpCustomerDelete); err != nil {
		return 0, err
	}
	if _, ok := r.s.customers[id]; !ok {
		return 0, nil
	}
	delete(r.s.customers, id)
	return 1, nil
}

// ---- inventory ----

type itemRepo struct{ s *Store }

func (r itemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntityInventoryItem, id)
	}
	return &item, nil
}

func (r itemRepo) FindByCode(_ context.Context, code string) (*inventory.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, item := range r.s.items {
		if item.Code == code {
			return &item, nil
		}
	}
	return nil, shared.NewNotFoundError(shared.EntityInventoryItem, code)
}

func (r itemRepo) Insert(ctx context.Context, item *inventory.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpItemInsert); err != nil {
		return err
	}
	for _, existing := range r.s.items {
		if existing.ID == item.ID || existing.Code == item.Code {
			return shared.NewConflictError("item code %s already exists", item.Code)
		}
	}
	stored := *item
	stored.DrainEvents()
	r.s.items[item.ID] = stored
	return nil
}

// AdjustQuantity applies delta unconditionally; the caller checks the result.
func (r itemRepo) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpItemAdjustQuantity); err != nil {
		return 0, err
	}
	stored, ok := r.s.items[id]
	if !ok {
		return 0, shared.NewNotFoundError(shared.EntityInventoryItem, id)
	}
	stored.Quantity += delta
	stored.Status = inventory.StatusFor(stored.Quantity)
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.s.items[id] = stored
	return stored.Quantity, nil
}

func (r itemRepo) SetReconcileFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpItemSetReconcile); err != nil {
		return err
	}
	stored, ok := r.s.items[id]
	if !ok {
		return shared.NewNotFoundError(shared.EntityInventoryItem, id)
	}
	stored.NeedsReconcile = flagged
	r.s.items[id] = stored
	return nil
}

func (r itemRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpItemDelete); err != nil {
		return 0, err
	}
	if _, ok := r.s.items[id]; !ok {
		return 0, nil
	}
	delete(r.s.items, id)
	return 1, nil
}

// ---- sales ----

type saleRepo struct{ s *Store }

func (r saleRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntitySale, id)
	}
	return &sale, nil
}

func (r saleRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]trade.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []trade.Sale
	for _, sale := range r.s.sales {
		if sale.CustomerID == customerID {
			list = append(list, sale)
		}
	}
	slices.SortFunc(list, func(a, b trade.Sale) int { return b.SoldAt.Compare(a.SoldAt) })
	return list, nil
}

func (r saleRepo) Insert(ctx context.Context, sale *trade.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpSaleInsert); err != nil {
		return err
	}
	if _, ok := r.s.sales[sale.ID]; ok {
		return shared.NewConflictError("sale %s already exists", sale.ID)
	}
	stored := *sale
	stored.DrainEvents()
	r.s.sales[sale.ID] = stored
	return nil
}

func (r saleRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpSaleDelete); err != nil {
		return 0, err
	}
	if _, ok := r.s.sales[id]; !ok {
		return 0, nil
	}
	delete(r.s.sales, id)
	return 1, nil
}

func (r saleRepo) CountByCustomer(_ context.Context, customerID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sale := range r.s.sales {
		if sale.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r saleRepo) SumTotalByCustomer(_ context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := decimal.Zero
	for _, sale := range r.s.sales {
		if sale.CustomerID == customerID {
			total = total.Add(sale.TotalAmount)
		}
	}
	return shared.RoundAmount(total), nil
}

func (r saleRepo) AttachInvoice(ctx context.Context, id, invoiceID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpSaleAttachInvoice); err != nil {
		return err
	}
	sale, ok := r.s.sales[id]
	if !ok {
		return shared.NewNotFoundError(shared.EntitySale, id)
	}
	sale.InvoiceID = &invoiceID
	sale.InvoiceStatus = billing.DocumentStatusIssued
	r.s.sales[id] = sale
	return nil
}

func (r saleRepo) FindPendingInvoices(_ context.Context, limit int) ([]trade.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []trade.Sale
	for _, sale := range r.s.sales {
		if sale.InvoiceStatus == billing.DocumentStatusPending {
			list = append(list, sale)
		}
	}
	slices.SortFunc(list, func(a, b trade.Sale) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ---- services ----

type serviceRepo struct{ s *Store }

func (r serviceRepo) FindByID(_ context.Context, id uuid.UUID) (*repair.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntityService, id)
	}
	return &svc, nil
}

func (r serviceRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]repair.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []repair.Service
	for _, svc := range r.s.services {
		if svc.CustomerID == customerID {
			list = append(list, svc)
		}
	}
	slices.SortFunc(list, func(a, b repair.Service) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return list, nil
}

func (r serviceRepo) Insert(ctx context.Context, service *repair.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpServiceInsert); err != nil {
		return err
	}
	if _, ok := r.s.services[service.ID]; ok {
		return shared.NewConflictError("service %s already exists", service.ID)
	}
	stored := *service
	stored.DrainEvents()
	r.s.services[service.ID] = stored
	return nil
}

func (r serviceRepo) UpdateLifecycle(ctx context.Context, service *repair.Service, expected repair.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpServiceUpdateLifecycle); err != nil {
		return err
	}
	stored, ok := r.s.services[service.ID]
	if !ok {
		return shared.NewNotFoundError(shared.EntityService, service.ID)
	}
	if stored.Status != expected {
		return shared.ErrConcurrencyConflict
	}
	stored.Status = service.Status
	stored.Cost = service.Cost
	stored.StartedAt = service.StartedAt
	stored.HeldAt = service.HeldAt
	stored.CompletedAt = service.CompletedAt
	stored.ActualDelivery = service.ActualDelivery
	stored.CompletionDescription = service.CompletionDescription
	stored.WarrantyPeriod = service.WarrantyPeriod
	stored.AttachmentKey = service.AttachmentKey
	stored.CompletionInvoiceStatus = service.CompletionInvoiceStatus
	stored.Version = service.Version
	stored.UpdatedAt = service.UpdatedAt
	r.s.services[service.ID] = stored
	return nil
}

func (r serviceRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpServiceDelete); err != nil {
		return 0, err
	}
	if _, ok := r.s.services[id]; !ok {
		return 0, nil
	}
	delete(r.s.services, id)
	return 1, nil
}

func (r serviceRepo) CountByCustomer(_ context.Context, customerID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, svc := range r.s.services {
		if svc.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r serviceRepo) SumCompletedCostByCustomer(_ context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := decimal.Zero
	for _, svc := range r.s.services {
		if svc.CustomerID == customerID {
			total = total.Add(svc.RealizedRevenue())
		}
	}
	return shared.RoundAmount(total), nil
}

func (r serviceRepo) AttachAcknowledgement(ctx context.Context, id, invoiceID uuid.UUID) error {
	return r.attach(ctx, id, func(svc *repair.Service) {
		svc.AcknowledgementInvoiceID = &invoiceID
		svc.AcknowledgementStatus = billing.DocumentStatusIssued
	})
}

func (r serviceRepo) AttachCompletionInvoice(ctx context.Context, id, invoiceID uuid.UUID) error {
	return r.attach(ctx, id, func(svc *repair.Service) {
		svc.CompletionInvoiceID = &invoiceID
		svc.CompletionInvoiceStatus = billing.DocumentStatusIssued
	})
}

func (r serviceRepo) attach(ctx context.Context, id uuid.UUID, apply func(*repair.Service)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpServiceAttachDocument); err != nil {
		return err
	}
	svc, ok := r.s.services[id]
	if !ok {
		return shared.NewNotFoundError(shared.EntityService, id)
	}
	apply(&svc)
	r.s.services[id] = svc
	return nil
}

func (r serviceRepo) FindPendingDocuments(_ context.Context, limit int) ([]repair.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []repair.Service
	for _, svc := range r.s.services {
		if svc.AcknowledgementStatus == billing.DocumentStatusPending ||
			svc.CompletionInvoiceStatus == billing.DocumentStatusPending {
			list = append(list, svc)
		}
	}
	slices.SortFunc(list, func(a, b repair.Service) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ---- invoices ----

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntityInvoice, id)
	}
	return &inv, nil
}

func (r invoiceRepo) FindByRelated(_ context.Context, relatedID uuid.UUID, invoiceType billing.InvoiceType) (*billing.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.invoices {
		if inv.RelatedID == relatedID && inv.Type == invoiceType {
			return &inv, nil
		}
	}
	return nil, shared.NewNotFoundError(shared.EntityInvoice, relatedID)
}

func (r invoiceRepo) Insert(ctx context.Context, invoice *billing.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpInvoiceInsert); err != nil {
		return err
	}
	for _, existing := range r.s.invoices {
		if existing.InvoiceNo == invoice.InvoiceNo ||
			(existing.RelatedID == invoice.RelatedID && existing.Type == invoice.Type) {
			return shared.NewConflictError("invoice %s already exists", invoice.InvoiceNo)
		}
	}
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

// ---- expenses ----

type expenseRepo struct{ s *Store }

func (r expenseRepo) FindByID(_ context.Context, id uuid.UUID) (*finance.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, shared.NewNotFoundError(shared.EntityExpense, id)
	}
	return &e, nil
}

func (r expenseRepo) FindAll(_ context.Context, q shared.ListQuery) ([]finance.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]finance.Expense, 0, len(r.s.expenses))
	for _, e := range r.s.expenses {
		if q.Match != "" && e.Category != q.Match {
			continue
		}
		list = append(list, e)
	}
	cmp := byCreatedAt(!q.Ascending)
	slices.SortFunc(list, func(a, b finance.Expense) int { return cmp(a.PaidAt, b.PaidAt) })
	return page(list, q), nil
}

func (r expenseRepo) Insert(ctx context.Context, expense *finance.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpExpenseInsert); err != nil {
		return err
	}
	r.s.expenses[expense.ID] = *expense
	return nil
}

func (r expenseRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkFault(ctx, OpExpenseDelete); err != nil {
		return 0, err
	}
	if _, ok := r.s.expenses[id]; !ok {
		return 0, nil
	}
	delete(r.s.expenses, id)
	return 1, nil
}

// Ensure Store implements uow.Store
var _ uow.Store = (*Store)(nil)
