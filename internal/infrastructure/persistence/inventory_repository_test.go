package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockedItems wires the item repository to sqlmock speaking the postgres
// dialect, so the exact stock statements can be asserted.
func mockedItems(t *testing.T) (*GormInventoryItemRepository, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewGormInventoryItemRepository(db), mock
}

func TestAdjustQuantity_StatementShape(t *testing.T) {
	t.Run("decrement is a single guarded update", func(t *testing.T) {
		repo, mock := mockedItems(t)
		id := uuid.New()

		mock.ExpectExec(`UPDATE "inventory_items" SET .*"quantity"=quantity \+ .* WHERE id = \$\d+ AND quantity \+ \$\d+ >= 0`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT "quantity" FROM "inventory_items" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(4))

		qty, err := repo.AdjustQuantity(context.Background(), id, -1)
		require.NoError(t, err)
		assert.Equal(t, 4, qty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row means insufficient stock", func(t *testing.T) {
		repo, mock := mockedItems(t)
		id := uuid.New()

		mock.ExpectExec(`UPDATE "inventory_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "quantity", "status", "version"}).
				AddRow(id.String(), "SKX-1", 0, "sold", 3))

		qty, err := repo.AdjustQuantity(context.Background(), id, -2)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 0, qty)
		assert.Contains(t, err.Error(), "requested 2, available 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing item is not found", func(t *testing.T) {
		repo, mock := mockedItems(t)

		mock.ExpectExec(`UPDATE "inventory_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.AdjustQuantity(context.Background(), uuid.New(), -1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
