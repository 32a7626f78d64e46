package persistence

import (
	"testing"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestSortColumns_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty uses fallback", "", "created_at"},
		{"whitelisted column is kept", "net_value", "net_value"},
		{"unknown column uses fallback", "password", "created_at"},
		{"injection attempt uses fallback", "name; DROP TABLE customers;--", "created_at"},
		{"match is case sensitive", "NAME", "created_at"},
		{"surrounding whitespace is trimmed", "  name  ", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, customerColumns.resolve(tt.input))
		})
	}
}

func TestSortColumns_FallbackAlwaysAllowed(t *testing.T) {
	assert.Equal(t, "paid_at", expenseColumns.resolve("paid_at"))
	assert.Equal(t, "paid_at", expenseColumns.resolve("net_value"))
}

func TestListQuery_Paging(t *testing.T) {
	q := shared.FirstPage(25)
	assert.Zero(t, q.Offset())
	assert.False(t, q.Last(25))
	assert.True(t, q.Last(24))

	q = q.Next().Next()
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.Offset())

	all := shared.FirstPage(0)
	assert.True(t, all.Last(1000))
	assert.Zero(t, all.Next().Offset())
}
