package inventory

import (
	"testing"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		quantity int
		want     ItemStatus
	}{
		{quantity: 0, want: ItemStatusSold},
		{quantity: 1, want: ItemStatusAvailable},
		{quantity: 42, want: ItemStatusAvailable},
		{quantity: -1, want: ItemStatusSold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.quantity), "quantity %d", tt.quantity)
	}
}

func TestNewItem(t *testing.T) {
	t.Run("normalizes code and derives status", func(t *testing.T) {
		item, err := NewItem(" sk-007 ", "Seiko", "SKX007", "watch", decimal.NewFromInt(100), 5)
		require.NoError(t, err)
		assert.Equal(t, "SK-007", item.Code)
		assert.Equal(t, ItemStatusAvailable, item.Status)
		assert.True(t, item.ConsistentStatus())
		assert.True(t, item.CanFulfill(5))
		assert.False(t, item.CanFulfill(6))
		assert.False(t, item.CanFulfill(0))
	})

	t.Run("zero quantity is sold", func(t *testing.T) {
		item, err := NewItem("C-1", "Casio", "F91W", "watch", decimal.NewFromInt(20), 0)
		require.NoError(t, err)
		assert.Equal(t, ItemStatusSold, item.Status)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewItem("", "b", "m", "t", decimal.Zero, 1)
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = NewItem("X", "b", "m", "t", decimal.NewFromInt(-1), 1)
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = NewItem("X", "b", "m", "t", decimal.Zero, -2)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}
