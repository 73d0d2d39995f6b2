package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

var hundred = decimal.NewFromInt(100)

// BudgetStatus compares one budget with what was spent against it.
type BudgetStatus struct {
	CategoryName string
	ColorTag     string
	Budget       decimal.Decimal
	Actual       decimal.Decimal
	Remaining    decimal.Decimal
	Percentage   float64
	BudgetID     int64
	CategoryID   int64
}

// OverBudget reports whether spending exceeded the budget.
func (s BudgetStatus) OverBudget() bool {
	return s.Remaining.IsNegative()
}

// Status evaluates budgets for month/year against expense transactions dated in
// that month. Budgets of missing or non-expense categories are skipped. Output
// follows the order of budgets.
func Status(budgets []model.Budget, categories []model.Category, txns []model.Transaction, month, year int) ([]BudgetStatus, error) {
	window, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}
	byID := indexCategories(categories)

	spent := make(map[int64]decimal.Decimal)
	for _, txn := range txns {
		if txn.Type != model.TypeExpense || !txn.HasCategory() || !window.Contains(txn.Date) {
			continue
		}
		spent[*txn.CategoryID] = spent[*txn.CategoryID].Add(txn.Amount)
	}

	var rows []BudgetStatus
	for _, b := range budgets {
		if b.Month != month || b.Year != year {
			continue
		}
		cat, ok := byID[b.CategoryID]
		if !ok || cat.Type != model.TypeExpense {
			continue
		}

		actual := spent[b.CategoryID]
		rows = append(rows, BudgetStatus{
			BudgetID:     b.ID,
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			ColorTag:     cat.ColorTag,
			Budget:       b.Amount,
			Actual:       actual,
			Remaining:    b.Amount.Sub(actual),
			Percentage:   percentOf(actual, b.Amount),
		})
	}
	return rows, nil
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	pct, _ := part.Div(whole).Mul(hundred).Float64()
	return pct
}

// SortByPercentage orders statuses from most to least consumed, keeping
// budget order among equal percentages.
func SortByPercentage(statuses []BudgetStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Percentage > statuses[j].Percentage
	})
}
