package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// SeriesPoint is income and expense within one bucket.
type SeriesPoint struct {
	Bucket  Bucket
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Label is the bucket label, e.g. 2024-03 for a month.
func (p SeriesPoint) Label() string {
	return p.Bucket.Label
}

// Net is income minus expense.
func (p SeriesPoint) Net() decimal.Decimal {
	return p.Income.Sub(p.Expense)
}

// IncomeVsExpenses returns one point per bucket holding any transaction in r,
// ordered by bucket start. A side without transactions is zero, so a bucket of
// transfers alone yields a zero point.
func IncomeVsExpenses(txns []model.Transaction, r DateRange, g Grouping) []SeriesPoint {
	index := make(map[string]int)
	var points []SeriesPoint
	for _, txn := range txns {
		if !r.Contains(txn.Date) {
			continue
		}
		b := g.BucketOf(txn.Date)
		i, ok := index[b.Label]
		if !ok {
			i = len(points)
			index[b.Label] = i
			points = append(points, SeriesPoint{Bucket: b, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch txn.Type {
		case model.TypeIncome:
			points[i].Income = points[i].Income.Add(txn.Amount)
		case model.TypeExpense:
			points[i].Expense = points[i].Expense.Add(txn.Amount)
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Bucket.Start.Before(points[j].Bucket.Start)
	})
	return points
}
