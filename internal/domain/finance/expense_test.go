package finance

import (
	"testing"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense(t *testing.T) {
	e, err := NewExpense(" rent ", "March rent", decimal.NewFromInt(1200), time.Time{}, "bank")
	require.NoError(t, err)
	assert.Equal(t, "rent", e.Category)
	assert.False(t, e.PaidAt.IsZero())

	_, err = NewExpense("", "x", decimal.NewFromInt(1), time.Now(), "cash")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewExpense("tools", "x", decimal.Zero, time.Now(), "cash")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
