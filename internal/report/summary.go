package report

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// Summary condenses a date range into headline figures.
type Summary struct {
	Range            DateRange
	TotalIncome      decimal.Decimal
	TotalExpense     decimal.Decimal
	TotalTransfer    decimal.Decimal
	Net              decimal.Decimal
	SavingsRate      float64
	TransactionCount int
}

// Summarize totals txns inside r. SavingsRate is net as a percentage of income,
// and 0 without income.
func Summarize(txns []model.Transaction, r DateRange) Summary {
	s := Summary{
		Range:         r,
		TotalIncome:   decimal.Zero,
		TotalExpense:  decimal.Zero,
		TotalTransfer: decimal.Zero,
	}
	for _, txn := range txns {
		if !r.Contains(txn.Date) {
			continue
		}
		s.TransactionCount++
		switch txn.Type {
		case model.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(txn.Amount)
		case model.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(txn.Amount)
		case model.TypeTransfer:
			s.TotalTransfer = s.TotalTransfer.Add(txn.Amount)
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	s.SavingsRate = percentOf(s.Net, s.TotalIncome)
	return s
}
