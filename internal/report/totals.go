package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// TotalRow is the sum of one transaction type within one bucket.
type TotalRow struct {
	Bucket Bucket
	Type   model.TransactionType
	Total  decimal.Decimal
}

// Totals sums txns inside r per (bucket, type). Rows are ordered by bucket start
// and then income, expense, transfer. Only pairs that occur are emitted.
func Totals(txns []model.Transaction, r DateRange, g Grouping) []TotalRow {
	type key struct {
		label string
		typ   model.TransactionType
	}

	index := make(map[key]int)
	var rows []TotalRow
	for _, txn := range txns {
		if !r.Contains(txn.Date) {
			continue
		}
		b := g.BucketOf(txn.Date)
		k := key{label: b.Label, typ: txn.Type}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, TotalRow{Bucket: b, Type: txn.Type, Total: decimal.Zero})
		}
		rows[i].Total = rows[i].Total.Add(txn.Amount)
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Start.Equal(rows[j].Bucket.Start) {
			return rows[i].Bucket.Start.Before(rows[j].Bucket.Start)
		}
		return rows[i].Type.Rank() < rows[j].Type.Rank()
	})
	return rows
}
