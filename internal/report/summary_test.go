package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/ledger/internal/model"
)

func TestSummarize(t *testing.T) {
	txns := []model.Transaction{
		txn("2024-03-01", model.TypeIncome, "2000", 2),
		txn("2024-03-02", model.TypeExpense, "500", 1),
		txn("2024-03-03", model.TypeExpense, "250.50", 3),
		txn("2024-03-04", model.TypeTransfer, "300", 0),
		txn("2024-04-01", model.TypeExpense, "999", 1),
	}

	s := Summarize(txns, dateRange(t, "2024-03-01", "2024-03-31"))

	assert.Equal(t, "2000.00", s.TotalIncome.StringFixed(2))
	assert.Equal(t, "750.50", s.TotalExpense.StringFixed(2))
	assert.Equal(t, "300.00", s.TotalTransfer.StringFixed(2))
	assert.Equal(t, "1249.50", s.Net.StringFixed(2))
	assert.InDelta(t, 62.48, s.SavingsRate, 0.001)
	assert.Equal(t, 4, s.TransactionCount)
}

func TestSummarizeWithoutIncome(t *testing.T) {
	txns := []model.Transaction{txn("2024-03-02", model.TypeExpense, "80", 1)}

	s := Summarize(txns, dateRange(t, "2024-03-01", "2024-03-31"))

	assert.Zero(t, s.SavingsRate)
	assert.Equal(t, "-80.00", s.Net.StringFixed(2))

	empty := Summarize(nil, dateRange(t, "2024-03-01", "2024-03-31"))
	assert.Zero(t, empty.TransactionCount)
	assert.True(t, empty.Net.IsZero())
}
