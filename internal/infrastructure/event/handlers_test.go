package event

import (
	"context"
	"errors"
	"testing"

	"github.com/chronoshop/backend/internal/domain/inventory"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/chronoshop/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuditLog struct {
	mock.Mock
}

func (m *mockAuditLog) Log(ctx context.Context, username, role, action, category string, details map[string]any) error {
	args := m.Called(ctx, username, role, action, category, details)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, entity shared.EntityType) error {
	return m.Called(ctx, entity).Error(0)
}

func TestAuditHandler_LogsWithActor(t *testing.T) {
	audit := new(mockAuditLog)
	handler := NewAuditHandler(audit, zap.NewNop())
	event := newTestEvent("sale.recorded")

	audit.On("Log", mock.Anything, "clerk", "staff", "sale.recorded", "TestAggregate",
		mock.MatchedBy(func(details map[string]any) bool {
			payload, ok := details["payload"].(map[string]any)
			return ok && payload["data"] == "test data" && details["event_id"] == event.EventID().String()
		})).Return(nil)

	ctx := shared.WithActor(context.Background(), shared.Actor{Username: "clerk", Role: "staff"})
	require.NoError(t, handler.Handle(ctx, event))
	audit.AssertExpectations(t)
}

func TestAuditHandler_DefaultsToSystemAndSwallowsErrors(t *testing.T) {
	audit := new(mockAuditLog)
	handler := NewAuditHandler(audit, zap.NewNop())
	audit.On("Log", mock.Anything, "system", "system", "x", "TestAggregate", mock.Anything).
		Return(errors.New("audit store down"))

	assert.NoError(t, handler.Handle(context.Background(), newTestEvent("x")))
	audit.AssertExpectations(t)
}

func TestRefreshHandler_NotifiesTouchedEntities(t *testing.T) {
	notifier := new(mockNotifier)
	handler := NewRefreshHandler(notifier, zap.NewNop())
	sale, err := trade.NewSale(trade.SaleInput{
		CustomerID: uuid.New(),
		ItemID:     uuid.New(),
		Quantity:   1,
		UnitPrice:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	notifier.On("Notify", mock.Anything, shared.EntitySale).Return(nil).Once()
	notifier.On("Notify", mock.Anything, shared.EntityCustomer).Return(nil).Once()
	notifier.On("Notify", mock.Anything, shared.EntityInventoryItem).Return(errors.New("nobody listening")).Once()

	require.NoError(t, handler.Handle(context.Background(), trade.NewSaleRecordedEvent(sale)))
	notifier.AssertExpectations(t)
}

func TestRefreshHandler_FallsBackToAggregateType(t *testing.T) {
	notifier := new(mockNotifier)
	handler := NewRefreshHandler(notifier, zap.NewNop())
	event := inventory.NewStockAdjustedEvent(inventory.StockAdjustment{ItemID: uuid.New(), Delta: 3, NewQuantity: 3})

	notifier.On("Notify", mock.Anything, shared.EntityInventoryItem).Return(nil).Once()
	require.NoError(t, handler.Handle(context.Background(), event))

	require.NoError(t, handler.Handle(context.Background(), newTestEvent("unknown")))
	notifier.AssertExpectations(t)
}
