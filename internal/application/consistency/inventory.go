package consistency

import (
	"context"

	"github.com/chronoshop/backend/internal/application/uow"
	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RegisterItem creates a stock item. A duplicate code yields Conflict.
func (e *Engine) RegisterItem(ctx context.Context, req RegisterItemRequest) (item *inventory.Item, err error) {
	defer func() { e.record(ctx, "inventory.register", err) }()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	item, err = inventory.NewItem(req.Code, req.Brand, req.Model, req.Type, req.Price, req.Quantity)
	if err != nil {
		return nil, err
	}

	plan := uow.Plan{Event: "inventory.register"}
	plan.Add(uow.Step{
		Name: "insert_item",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			return repos.Items().Insert(ctx, item)
		},
	})
	if err := e.runner.Run(ctx, plan); err != nil {
		return nil, err
	}

	e.committed(ctx, []shared.EntityType{shared.EntityInventoryItem}, item.DrainEvents()...)
	return item, nil
}

// RestockItem adds Delta units to an item, or removes them when Delta is
// negative. Stock never goes below zero.
func (e *Engine) RestockItem(ctx context.Context, req RestockRequest) (item *inventory.Item, err error) {
	defer func() { e.record(ctx, "inventory.adjust", err) }()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	current, err := e.store.Items().FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if current.Quantity+req.Delta < 0 {
		return nil, shared.NewInsufficientStockError(current.Code, -req.Delta, current.Quantity)
	}

	var remaining int
	plan := uow.Plan{Event: "inventory.adjust"}
	plan.Add(uow.Step{
		Name: "adjust_stock",
		Apply: func(ctx context.Context, repos uow.Repositories) error {
			qty, err := repos.Items().AdjustQuantity(ctx, req.ItemID, req.Delta)
			if err != nil {
				return err
			}
			remaining = qty
			if qty < 0 {
				return uow.Violation(shared.NewInsufficientStockError(current.Code, -req.Delta, qty-req.Delta))
			}
			return nil
		},
		Compensate: func(ctx context.Context, repos uow.Repositories) error {
			_, err := repos.Items().AdjustQuantity(ctx, req.ItemID, -req.Delta)
			return err
		},
	})
	if err := e.run(ctx, plan, affected{items: []uuid.UUID{req.ItemID}}); err != nil {
		return nil, err
	}

	item, err = e.store.Items().FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	adjusted := inventory.NewStockAdjustedEvent(inventory.StockAdjustment{
		ItemID:      req.ItemID,
		Delta:       req.Delta,
		NewQuantity: remaining,
		Reason:      req.Reason,
	})
	e.committed(ctx, []shared.EntityType{shared.EntityInventoryItem}, adjusted)
	return item, nil
}
