package partner

import (
	"testing"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates customer with zero aggregates", func(t *testing.T) {
		c, err := NewCustomer("  Ada Lovelace ", "ADA@example.com", "+1 (555) 010-2030", "1 Main St")
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", c.Name)
		assert.Equal(t, "ada@example.com", c.Email)
		assert.Equal(t, "+15550102030", c.Phone)
		assert.True(t, c.NetValue.IsZero())
		assert.Zero(t, c.PurchaseCount)
		assert.Zero(t, c.ServiceCount)
		assert.Equal(t, 1, c.Version)
		require.Len(t, c.PendingEvents(), 1)
		assert.Equal(t, EventTypeCustomerRegistered, c.PendingEvents()[0].EventType())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCustomer(" ", "", "", "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewCustomer("Bob", "not-an-email", "", "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects short phone", func(t *testing.T) {
		_, err := NewCustomer("Bob", "", "123", "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestCustomer_ApplyAggregates(t *testing.T) {
	c, err := NewCustomer("Ada", "", "", "")
	require.NoError(t, err)
	c.DrainEvents()

	changed := c.ApplyAggregates(Aggregates{NetValue: decimal.NewFromInt(200), PurchaseCount: 1})
	assert.True(t, changed)
	assert.Equal(t, 2, c.Version)
	assert.True(t, c.NetValue.Equal(decimal.NewFromInt(200)))
	require.Len(t, c.PendingEvents(), 1)

	evt := c.PendingEvents()[0].(*CustomerAggregatesChangedEvent)
	assert.True(t, evt.Previous.NetValue.IsZero())
	assert.Equal(t, 1, evt.Current.PurchaseCount)

	c.DrainEvents()
	changed = c.ApplyAggregates(Aggregates{NetValue: decimal.RequireFromString("200.00"), PurchaseCount: 1})
	assert.False(t, changed, "equal decimals with different exponents are not a change")
	assert.Equal(t, 3, c.Version)
	assert.Empty(t, c.PendingEvents())
}
