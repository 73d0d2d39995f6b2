package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/model"
)

func txn(date string, typ model.TransactionType, amount string, categoryID int64) model.Transaction {
	d, err := model.ParseDate(date)
	if err != nil {
		panic(err)
	}
	t := model.Transaction{Date: d, Type: typ, Amount: decimal.RequireFromString(amount)}
	if categoryID != 0 {
		t.CategoryID = &categoryID
	}
	return t
}

func dateRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	s, err := model.ParseDate(start)
	require.NoError(t, err)
	e, err := model.ParseDate(end)
	require.NoError(t, err)
	r, err := NewDateRange(s, e)
	require.NoError(t, err)
	return r
}

type totalView struct {
	label string
	typ   model.TransactionType
	total string
}

func viewTotals(rows []TotalRow) []totalView {
	out := make([]totalView, 0, len(rows))
	for _, r := range rows {
		out = append(out, totalView{r.Bucket.Label, r.Type, r.Total.StringFixed(2)})
	}
	return out
}

func TestTotalsByMonth(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-15", model.TypeExpense, "30", 1),
		txn("2024-02-10", model.TypeTransfer, "500", 0),
		txn("2024-03-01", model.TypeIncome, "1000", 2),
		txn("2024-03-01", model.TypeExpense, "50", 1),
		txn("2024-02-10", model.TypeExpense, "12.25", 0),
		txn("2024-02-01", model.TypeIncome, "900", 2),
		txn("2024-04-01", model.TypeExpense, "99", 1), // outside the range
	}

	rows := Totals(txns, dateRange(t, "2024-02-01", "2024-03-31"), GroupMonth)

	assert.Equal(t, []totalView{
		{"2024-02", model.TypeIncome, "900.00"},
		{"2024-02", model.TypeExpense, "12.25"},
		{"2024-02", model.TypeTransfer, "500.00"},
		{"2024-03", model.TypeIncome, "1000.00"},
		{"2024-03", model.TypeExpense, "80.00"},
	}, viewTotals(rows))
}

func TestTotalsByWeekCrossesIsoYear(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-12-31", model.TypeExpense, "20", 1),
		txn("2025-01-02", model.TypeExpense, "5", 1),
		txn("2024-12-29", model.TypeExpense, "7", 1),
	}

	rows := Totals(txns, dateRange(t, "2024-12-01", "2025-01-31"), GroupWeek)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-W52", rows[0].Bucket.Label)
	assert.Equal(t, "2025-W01", rows[1].Bucket.Label)
	assert.Equal(t, 2025, rows[1].Bucket.Year)
	assert.Equal(t, 1, rows[1].Bucket.Number)
	assert.True(t, decimal.NewFromInt(25).Equal(rows[1].Total))
}

func TestTotalsInclusiveBoundsAndEmpty(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-01", model.TypeExpense, "1", 1),
		txn("2024-03-31", model.TypeExpense, "2", 1),
	}

	rows := Totals(txns, dateRange(t, "2024-03-01", "2024-03-31"), GroupYear)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024", rows[0].Bucket.Label)
	assert.Equal(t, model.Date(2024, time.January, 1), rows[0].Bucket.Start)
	assert.True(t, decimal.NewFromInt(3).Equal(rows[0].Total))

	assert.Empty(t, Totals(txns, dateRange(t, "2025-01-01", "2025-12-31"), GroupDay))
	assert.Empty(t, Totals(nil, dateRange(t, "2024-01-01", "2024-12-31"), GroupDay))
}

func TestSumByType(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-01-05", model.TypeIncome, "100", 2),
		txn("2024-02-05", model.TypeIncome, "50", 2),
		txn("2024-02-05", model.TypeExpense, "30", 1),
	}
	sums := SumByType(Totals(txns, dateRange(t, "2024-01-01", "2024-12-31"), GroupMonth))

	assert.True(t, decimal.NewFromInt(150).Equal(sums[model.TypeIncome]))
	assert.True(t, decimal.NewFromInt(30).Equal(sums[model.TypeExpense]))
	assert.True(t, sums[model.TypeTransfer].IsZero())
}
