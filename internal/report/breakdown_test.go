package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/model"
)

var testCategories = []model.Category{
	{ID: 1, Name: "Food", ColorTag: "#d35400", Type: model.TypeExpense},
	{ID: 2, Name: "Salary", ColorTag: "#27ae60", Type: model.TypeIncome},
	{ID: 3, Name: "Rent", ColorTag: "#e74c3c", Type: model.TypeExpense},
	{ID: 4, Name: "Travel", ColorTag: "#3498db", Type: model.TypeExpense},
	{ID: 5, Name: "Fun", ColorTag: "#8e44ad", Type: model.TypeExpense},
}

func TestBreakdownScenario(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-01", model.TypeExpense, "50", 1),
		txn("2024-03-15", model.TypeExpense, "30", 1),
		txn("2024-03-01", model.TypeIncome, "1000", 2),
	}

	rows := Breakdown(txns, testCategories, dateRange(t, "2024-03-01", "2024-03-31"), model.TypeExpense)

	require.Len(t, rows, 1)
	assert.Equal(t, "Food", rows[0].Name)
	assert.Equal(t, "80.00", rows[0].Total.StringFixed(2))
	assert.Equal(t, "#d35400", rows[0].ColorTag)
}

func TestBreakdownInnerJoin(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-02", model.TypeExpense, "10", 1),
		txn("2024-03-02", model.TypeExpense, "99", 0),   // uncategorized
		txn("2024-03-02", model.TypeExpense, "45", 404), // dangling category id
		txn("2024-02-28", model.TypeExpense, "70", 4),   // outside the range
	}

	rows := Breakdown(txns, testCategories, dateRange(t, "2024-03-01", "2024-03-31"), model.TypeExpense)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].CategoryID)
	for _, r := range rows {
		assert.NotEqual(t, "Travel", r.Name, "a category without matches must not appear")
	}
}

func TestBreakdownOrdering(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-02", model.TypeExpense, "20", 5),
		txn("2024-03-03", model.TypeExpense, "20", 3),
		txn("2024-03-04", model.TypeExpense, "900", 1),
		txn("2024-03-05", model.TypeExpense, "5", 4),
	}

	rows := Breakdown(txns, testCategories, dateRange(t, "2024-03-01", "2024-03-31"), model.TypeExpense)

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Food", "Rent", "Fun", "Travel"}, names, "ties resolve by category id")
}

func TestBreakdownByIncome(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-01", model.TypeIncome, "1000", 2),
		txn("2024-03-01", model.TypeExpense, "50", 1),
	}

	rows := Breakdown(txns, testCategories, dateRange(t, "2024-03-01", "2024-03-31"), model.TypeIncome)
	require.Len(t, rows, 1)
	assert.Equal(t, "Salary", rows[0].Name)
}
