package persistence

import (
	"context"
	"errors"
	"testing"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenSQLiteMemory()
	require.NoError(t, err)
	store := NewGormStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedCustomer(t *testing.T, store *GormStore, email string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("Ada Lovelace", email, "", "")
	require.NoError(t, err)
	require.NoError(t, store.Customers().Insert(context.Background(), c))
	return c
}

func seedItem(t *testing.T, store *GormStore, code string, qty int) *inventory.Item {
	t.Helper()
	item, err := inventory.NewItem(code, "Seiko", "SKX007", "watch", decimal.NewFromInt(250), qty)
	require.NoError(t, err)
	require.NoError(t, store.Items().Insert(context.Background(), item))
	return item
}

func TestGormCustomerRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Customers()

	t.Run("insert and find", func(t *testing.T) {
		c := seedCustomer(t, store, "ada@example.com")
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", found.Name)
		assert.True(t, found.NetValue.IsZero())
		assert.Equal(t, 1, found.Version)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		seedCustomer(t, store, "dup@example.com")
		c, err := partner.NewCustomer("Other", "dup@example.com", "", "")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Insert(ctx, c), shared.ErrConflict)
	})

	t.Run("customers without email do not collide", func(t *testing.T) {
		seedCustomer(t, store, "")
		seedCustomer(t, store, "")
	})

	t.Run("missing customer is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update aggregates checks the version", func(t *testing.T) {
		c := seedCustomer(t, store, "agg@example.com")
		stale := *c

		c.ApplyAggregates(partner.Aggregates{NetValue: decimal.NewFromInt(100), PurchaseCount: 1})
		require.NoError(t, repo.UpdateAggregates(ctx, c))

		stale.ApplyAggregates(partner.Aggregates{NetValue: decimal.NewFromInt(5)})
		assert.ErrorIs(t, repo.UpdateAggregates(ctx, &stale), shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(found.NetValue))
		assert.Equal(t, 1, found.PurchaseCount)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("reconcile flag round trip", func(t *testing.T) {
		c := seedCustomer(t, store, "flag@example.com")
		require.NoError(t, repo.SetReconcileFlag(ctx, c.ID, true))
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, found.NeedsReconcile)
		assert.ErrorIs(t, repo.SetReconcileFlag(ctx, uuid.New(), true), shared.ErrNotFound)
	})

	t.Run("search and paging", func(t *testing.T) {
		q := shared.FirstPage(20)
		q.Match = "agg@"
		list, err := repo.FindAll(ctx, q)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "agg@example.com", list[0].Email)
	})

	t.Run("delete reports rows", func(t *testing.T) {
		c := seedCustomer(t, store, "gone@example.com")
		n, err := repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestGormInventoryItemRepository_AdjustQuantity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	repo := store.Items()

	item := seedItem(t, store, "SKX-1", 2)

	qty, err := repo.AdjustQuantity(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	qty, err = repo.AdjustQuantity(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemStatusSold, found.Status)

	_, err = repo.AdjustQuantity(ctx, item.ID, -1)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	qty, err = repo.AdjustQuantity(ctx, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
	found, err = repo.FindByCode(ctx, "skx-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.ItemStatusAvailable, found.Status)
	assert.True(t, found.ConsistentStatus())

	_, err = repo.AdjustQuantity(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	dup, err := inventory.NewItem("skx-1", "Seiko", "", "", decimal.Zero, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Insert(ctx, dup), shared.ErrConflict)
}

func TestGormSaleRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, store, "buyer@example.com")
	item := seedItem(t, store, "SALE-1", 10)

	newSale := func(price int64, qty int) *trade.Sale {
		s, err := trade.NewSale(trade.SaleInput{
			CustomerID: customer.ID,
			ItemID:     item.ID,
			Quantity:   qty,
			UnitPrice:  decimal.NewFromInt(price),
		})
		require.NoError(t, err)
		require.NoError(t, store.Sales().Insert(ctx, s))
		return s
	}

	first := newSale(100, 2)
	newSale(50, 1)

	count, err := store.Sales().CountByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	total, err := store.Sales().SumTotalByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(total), "got %s", total)

	empty, err := store.Sales().SumTotalByCustomer(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	pending, err := store.Sales().FindPendingInvoices(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	invoiceID := uuid.New()
	require.NoError(t, store.Sales().AttachInvoice(ctx, first.ID, invoiceID))
	found, err := store.Sales().FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, found.HasInvoice())
	assert.Equal(t, invoiceID, *found.InvoiceID)

	pending, err = store.Sales().FindPendingInvoices(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.ErrorIs(t, store.Sales().AttachInvoice(ctx, uuid.New(), invoiceID), shared.ErrNotFound)
}

func TestGormServiceRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, store, "owner@example.com")

	svc, err := repair.NewService(repair.ServiceInput{
		CustomerID:    customer.ID,
		WatchBrand:    "Omega",
		EstimatedCost: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	require.NoError(t, store.Services().Insert(ctx, svc))

	sum, err := store.Services().SumCompletedCostByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "pending tickets carry no revenue")

	now := time.Now()
	require.NoError(t, svc.TransitionTo(repair.StatusInProgress, nil, now))
	require.NoError(t, store.Services().UpdateLifecycle(ctx, svc, repair.StatusPending))

	// a second writer still believing the ticket is pending loses
	assert.ErrorIs(t, store.Services().UpdateLifecycle(ctx, svc, repair.StatusPending), shared.ErrConcurrencyConflict)

	require.NoError(t, svc.TransitionTo(repair.StatusCompleted, &repair.CompletionDetails{
		Description: "Replaced mainspring",
		FinalCost:   decimal.NewFromInt(120),
	}, now))
	require.NoError(t, store.Services().UpdateLifecycle(ctx, svc, repair.StatusInProgress))

	sum, err = store.Services().SumCompletedCostByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(120).Equal(sum))

	pending, err := store.Services().FindPendingDocuments(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Len(t, pending[0].PendingDocuments(), 2)

	require.NoError(t, store.Services().AttachAcknowledgement(ctx, svc.ID, uuid.New()))
	require.NoError(t, store.Services().AttachCompletionInvoice(ctx, svc.ID, uuid.New()))
	pending, err = store.Services().FindPendingDocuments(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	found, err := store.Services().FindByID(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, repair.StatusCompleted, found.Status)
	require.NotNil(t, found.StartedAt)
	require.NotNil(t, found.ActualDelivery)
	assert.Equal(t, billing.DocumentStatusIssued, found.CompletionInvoiceStatus)
}

func TestGormInvoiceRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	related := billing.RelatedEntity{Kind: billing.KindSalesInvoice, ID: uuid.New(), Amount: decimal.NewFromInt(10)}

	inv, err := billing.NewInvoice(related, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Invoices().Insert(ctx, inv))

	found, err := store.Invoices().FindByRelated(ctx, related.ID, billing.InvoiceTypeSales)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNo, found.InvoiceNo)

	_, err = store.Invoices().FindByRelated(ctx, related.ID, billing.InvoiceTypeServiceCompletion)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	again, err := billing.NewInvoice(related, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Invoices().Insert(ctx, again), shared.ErrConflict)
}

func TestGormExpenseRepository(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rent, err := finance.NewExpense("rent", "", decimal.NewFromInt(900), time.Now(), "bank")
	require.NoError(t, err)
	tools, err := finance.NewExpense("tools", "screwdrivers", decimal.NewFromInt(40), time.Now(), "cash")
	require.NoError(t, err)
	require.NoError(t, store.Expenses().Insert(ctx, rent))
	require.NoError(t, store.Expenses().Insert(ctx, tools))

	q := shared.FirstPage(20)
	q.Match = "tools"
	list, err := store.Expenses().FindAll(ctx, q)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tools.ID, list[0].ID)

	n, err := store.Expenses().Delete(ctx, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGormStore_ExecuteRollsBack(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	item := seedItem(t, store, "TX-1", 1)
	boom := errors.New("boom")

	assert.True(t, store.SupportsAtomicWrites())
	err := store.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Items().AdjustQuantity(ctx, item.ID, -1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := store.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Quantity)
}
