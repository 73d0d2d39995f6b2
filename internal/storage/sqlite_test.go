package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func mustCategory(t *testing.T, s service.Storage, name string, typ model.TransactionType) *model.Category {
	t.Helper()
	cat, err := s.CreateCategory(context.Background(), model.NewCategory{Name: name, Type: typ})
	require.NoError(t, err)
	return cat
}

func mustTransaction(t *testing.T, s service.Storage, amount string, date time.Time, typ model.TransactionType, categoryID *int64) *model.Transaction {
	t.Helper()
	txn, err := s.AddTransaction(context.Background(), model.NewTransaction{
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
		Type:       typ,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return txn
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, dbPath, store.Path())
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestBeginTx(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		_, err = tx.CreateCategory(ctx, model.NewCategory{Name: "Rent", Type: model.TypeExpense})
		require.NoError(t, err)

		cats, err := tx.GetCategories(ctx, service.CategoryFilter{})
		require.NoError(t, err)
		assert.Len(t, cats, 1)

		require.NoError(t, tx.Rollback())

		cats, err = store.GetCategories(ctx, service.CategoryFilter{})
		require.NoError(t, err)
		assert.Empty(t, cats)
	})

	t.Run("commit keeps writes", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)

		cat, err := tx.CreateCategory(ctx, model.NewCategory{Name: "Salary", Type: model.TypeIncome})
		require.NoError(t, err)
		_, err = tx.AddTransaction(ctx, model.NewTransaction{
			Amount:     decimal.NewFromInt(1000),
			Date:       model.Date(2024, time.March, 1),
			Type:       model.TypeIncome,
			CategoryID: &cat.ID,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		count, err := store.GetTransactionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("transactions refuse management calls", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		assert.Error(t, tx.Migrate(ctx))
		assert.Error(t, tx.Close())
		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}
