package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// CategoryTotal is one category's share of a breakdown.
type CategoryTotal struct {
	Name       string
	ColorTag   string
	Total      decimal.Decimal
	CategoryID int64
}

// Breakdown sums txns of type typ inside r per category. Uncategorized
// transactions and categories without a match are left out. Rows are sorted by
// total descending, then category id.
func Breakdown(txns []model.Transaction, categories []model.Category, r DateRange, typ model.TransactionType) []CategoryTotal {
	byID := indexCategories(categories)

	index := make(map[int64]int)
	var rows []CategoryTotal
	for _, txn := range txns {
		if txn.Type != typ || !txn.HasCategory() || !r.Contains(txn.Date) {
			continue
		}
		cat, ok := byID[*txn.CategoryID]
		if !ok {
			continue
		}
		i, seen := index[cat.ID]
		if !seen {
			i = len(rows)
			index[cat.ID] = i
			rows = append(rows, CategoryTotal{
				CategoryID: cat.ID,
				Name:       cat.Name,
				ColorTag:   cat.ColorTag,
				Total:      decimal.Zero,
			})
		}
		rows[i].Total = rows[i].Total.Add(txn.Amount)
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Total.Cmp(rows[j].Total); c != 0 {
			return c > 0
		}
		return rows[i].CategoryID < rows[j].CategoryID
	})
	return rows
}

func indexCategories(categories []model.Category) map[int64]model.Category {
	byID := make(map[int64]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}
