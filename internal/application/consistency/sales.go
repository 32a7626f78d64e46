package consistency

import (
	"context"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/billing"
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/partner"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/domain/trade"
	"github.com/google/uuid"
)

var saleEntities = []shared.EntityType{shared.EntitySale, shared.EntityCustomer, shared.EntityInventoryItem}

// RecordSale stores a sale, takes the sold units out of stock and refreshes
// the customer's aggregates. The sales invoice is requested after commit; if
// it cannot be issued the sale keeps a pending invoice status.
func (e *Engine) RecordSale(ctx context.Context, req RecordSaleRequest) (sale *trade.Sale, err error) {
	defer func() { e.record(ctx, "sale.record", err) }()

	sale, item, err := e.prepareSale(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "sale.record"}
	plan.Add(
		e.insertSaleStep(sale),
		e.takeStockStep(item, sale.Quantity),
		e.refreshStep(&refreshed, sale.CustomerID),
	)
	touched := affected{customers: []uuid.UUID{sale.CustomerID}, items: []uuid.UUID{item.ID}}
	if err := e.run(ctx, plan, touched); err != nil {
		return nil, err
	}

	e.committed(ctx, saleEntities, withCustomerEvents(refreshed, trade.NewSaleRecordedEvent(sale))...)
	e.issueSaleInvoice(ctx, sale)
	return sale, nil
}

// ReverseSale deletes a sale, puts its units back in stock and refreshes
// the customer. A sale can be reversed once; later calls fail with NotFound.
func (e *Engine) ReverseSale(ctx context.Context, saleID uuid.UUID) (err error) {
	defer func() { e.record(ctx, "sale.reverse", err) }()

	sale, err := e.store.Sales().FindByID(ctx, saleID)
	if err != nil {
		return err
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "sale.reverse"}
	plan.Add(
		e.deleteSaleStep(sale),
		e.returnStockStep(sale.ItemID, sale.Quantity),
		e.refreshStep(&refreshed, sale.CustomerID),
	)
	touched := affected{customers: []uuid.UUID{sale.CustomerID}, items: []uuid.UUID{sale.ItemID}}
	if err := e.run(ctx, plan, touched); err != nil {
		return err
	}

	e.committed(ctx, saleEntities, withCustomerEvents(refreshed, trade.NewSaleReversedEvent(sale))...)
	return nil
}

// EditSale replaces a sale by reversing it and recording req in one unit of
// work. The original invoice is left as issued and the replacement gets its
// own.
func (e *Engine) EditSale(ctx context.Context, saleID uuid.UUID, req RecordSaleRequest) (replacement *trade.Sale, err error) {
	defer func() { e.record(ctx, "sale.edit", err) }()

	original, err := e.store.Sales().FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	replacement, item, err := e.prepareSale(ctx, req, original)
	if err != nil {
		return nil, err
	}

	customers := []uuid.UUID{original.CustomerID}
	if replacement.CustomerID != original.CustomerID {
		customers = append(customers, replacement.CustomerID)
	}
	items := []uuid.UUID{original.ItemID}
	if item.ID != original.ItemID {
		items = append(items, item.ID)
	}

	var refreshed []*partner.Customer
	plan := uow.Plan{Event: "sale.edit"}
	plan.Add(
		e.deleteSaleStep(original),
		e.returnStockStep(original.ItemID, original.Quantity),
		e.insertSaleStep(replacement),
		e.takeStockStep(item, replacement.Quantity),
		e.refreshStep(&refreshed, customers...),
	)
	if err := e.run(ctx, plan, affected{customers: customers, items: items}); err != nil {
		return nil, err
	}

	e.committed(ctx, saleEntities, withCustomerEvents(refreshed, trade.NewSaleEditedEvent(original, replacement))...)
	e.issueSaleInvoice(ctx, replacement)
	return replacement, nil
}

// prepareSale validates req against the current customer and item. When
// replacing is set, its units count as available on the same item.
func (e *Engine) prepareSale(ctx context.Context, req RecordSaleRequest, replacing *trade.Sale) (*trade.Sale, *inventory.Item, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, nil, err
	}
	if _, err := e.store.Customers().FindByID(ctx, req.CustomerID); err != nil {
		return nil, nil, err
	}
	item, err := e.store.Items().FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, nil, err
	}

	available := item.Quantity
	if replacing != nil && replacing.ItemID == item.ID {
		available += replacing.Quantity
	}
	if available < req.Quantity {
		return nil, nil, shared.NewInsufficientStockError(item.Code, req.Quantity, available)
	}

	unitPrice := item.Price
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	discountType := trade.DiscountType(req.DiscountType)
	if discountType == "" {
		discountType = trade.DiscountNone
	}
	soldAt := req.SoldAt
	if soldAt.IsZero() {
		soldAt = e.now()
	}

	sale, err := trade.NewSale(trade.SaleInput{
		CustomerID:    req.CustomerID,
		ItemID:        item.ID,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		PaymentMethod: req.PaymentMethod,
		SoldAt:        soldAt,
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, item, nil
}

func (e *Engine) insertSaleStep(sale *trade.Sale) uow.Step {
	return uow.Step{
		Name: "insert_sale",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			return repos.Sales().Insert(ctx, sale)
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			if _, err := repos.Sales().Delete(ctx, sale.ID); err != nil {
				return err
			}
			return e.rederive(ctx, repos, sale.CustomerID)
		},
	}
}

func (e *Engine) deleteSaleStep(sale *trade.Sale) uow.Step {
	return uow.Step{
		Name: "delete_sale",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			n, err := repos.Sales().Delete(ctx, sale.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				return shared.NewNotFoundError(shared.EntitySale, sale.ID)
			}
			return nil
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			if err := repos.Sales().Insert(ctx, sale); err != nil {
				return err
			}
			return e.rederive(ctx, repos, sale.CustomerID)
		},
	}
}

// takeStockStep removes quantity units. Atomic stores refuse to go below
// zero; on other stores the new quantity is checked after the write.
func (e *Engine) takeStockStep(item *inventory.Item, quantity int) uow.Step {
	return uow.Step{
		Name: "decrement_stock",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			remaining, err := repos.Items().AdjustQuantity(ctx, item.ID, -quantity)
			if err != nil {
				return err
			}
			if remaining < 0 {
				return uow.Violation(shared.NewInsufficientStockError(item.Code, quantity, remaining+quantity))
			}
			return nil
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			_, err := repos.Items().AdjustQuantity(ctx, item.ID, quantity)
			return err
		},
	}
}

func (e *Engine) returnStockStep(itemID uuid.UUID, quantity int) uow.Step {
	return uow.Step{
		Name: "restore_stock",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			_, err := repos.Items().AdjustQuantity(ctx, itemID, quantity)
			return err
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			_, err := repos.Items().AdjustQuantity(ctx, itemID, -quantity)
			return err
		},
	}
}

// issueSaleInvoice records the invoice on the returned sale when it was issued
func (e *Engine) issueSaleInvoice(ctx context.Context, sale *trade.Sale) {
	out := e.dispatch(ctx, sale.DocumentRequest())
	if out.Issued() {
		docID := out.DocumentID
		sale.InvoiceID = &docID
		sale.InvoiceStatus = billing.DocumentStatusIssued
	}
}

// withCustomerEvents appends the pending events of the refreshed customers
// to the primary event
func withCustomerEvents(refreshed []*partner.Customer, primary shared.DomainEvent) []shared.DomainEvent {
	events := []shared.DomainEvent{primary}
	for _, c := range refreshed {
		events = append(events, c.DrainEvents()...)
	}
	return events
}
