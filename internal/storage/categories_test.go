package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

func TestCreateCategory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat, err := store.CreateCategory(ctx, model.NewCategory{Name: "  Groceries ", Type: model.TypeExpense})
	require.NoError(t, err)
	assert.Positive(t, cat.ID)
	assert.Equal(t, "Groceries", cat.Name)
	assert.Equal(t, model.DefaultColorTag, cat.ColorTag)
	assert.False(t, cat.CreatedAt.IsZero())

	got, err := store.GetCategoryByName(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)
	assert.Equal(t, model.TypeExpense, got.Type)

	tests := []struct {
		name    string
		input   model.NewCategory
		wantErr error
	}{
		{"duplicate name", model.NewCategory{Name: "Groceries", Type: model.TypeExpense}, common.ErrDuplicateEntry},
		{"blank name", model.NewCategory{Name: "   ", Type: model.TypeExpense}, common.ErrValidation},
		{"unknown type", model.NewCategory{Name: "Misc", Type: "refund"}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateCategory(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetCategories(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	mustCategory(t, store, "Rent", model.TypeExpense)
	mustCategory(t, store, "Salary", model.TypeIncome)
	mustCategory(t, store, "Food", model.TypeExpense)

	all, err := store.GetCategories(ctx, service.CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Food", "Rent", "Salary"}, []string{all[0].Name, all[1].Name, all[2].Name})

	expense := model.TypeExpense
	expenses, err := store.GetCategories(ctx, service.CategoryFilter{Type: &expense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	_, err = store.GetCategoryByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = store.GetCategoryByName(ctx, "Travel")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateCategory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := mustCategory(t, store, "Food", model.TypeExpense)
	mustCategory(t, store, "Rent", model.TypeExpense)

	name := "Dining"
	color := "#ff0000"
	require.NoError(t, store.UpdateCategory(ctx, food.ID, model.CategoryUpdate{Name: &name, ColorTag: &color}))

	got, err := store.GetCategoryByID(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Name)
	assert.Equal(t, "#ff0000", got.ColorTag)
	assert.Equal(t, model.TypeExpense, got.Type)

	taken := "Rent"
	assert.ErrorIs(t, store.UpdateCategory(ctx, food.ID, model.CategoryUpdate{Name: &taken}), common.ErrDuplicateEntry)
	assert.ErrorIs(t, store.UpdateCategory(ctx, 404, model.CategoryUpdate{Name: &name}), common.ErrNotFound)
	assert.ErrorIs(t, store.UpdateCategory(ctx, food.ID, model.CategoryUpdate{}), ErrEmptyUpdate)
}

func TestDeleteCategoryReferentialGuard(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := mustCategory(t, store, "Food", model.TypeExpense)
	txn := mustTransaction(t, store, "12.50", model.Date(2024, time.March, 3), model.TypeExpense, &food.ID)

	err := store.DeleteCategory(ctx, food.ID)
	require.ErrorIs(t, err, common.ErrCategoryInUse)

	_, err = store.GetCategoryByID(ctx, food.ID)
	require.NoError(t, err, "category must survive a blocked delete")

	require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
	require.NoError(t, store.DeleteCategory(ctx, food.ID))

	_, err = store.GetCategoryByID(ctx, food.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteCategory(ctx, food.ID), common.ErrNotFound)
}

func TestDeleteCategoryRemovesBudgets(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := mustCategory(t, store, "Food", model.TypeExpense)
	_, err := store.SetBudget(ctx, model.BudgetInput{
		CategoryID: food.ID, Amount: decimal.NewFromInt(200), Month: 3, Year: 2024,
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, food.ID))

	budgets, err := store.GetBudgets(ctx, service.BudgetFilter{})
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestSeedDefaultCategories(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	n, err := store.SeedDefaultCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(model.DefaultCategories()), n)

	n, err = store.SeedDefaultCategories(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice must not duplicate")

	salary, err := store.GetCategoryByName(ctx, "Salary")
	require.NoError(t, err)
	assert.Equal(t, model.TypeIncome, salary.Type)
}
