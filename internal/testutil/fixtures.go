package testutil

import (
	"hash/fnv"
	"testing"

	"github.com/Veraticus/ledger/internal/model"
)

var palette = []string{
	"#e74c3c", "#e67e22", "#f1c40f", "#27ae60",
	"#16a085", "#3498db", "#8e44ad", "#2c3e50",
}

// ColorFor returns a stable color tag for a fixture category name.
func ColorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Fixture is a small ledger used across report tests.
type Fixture struct {
	DB       *TestDB
	Food     *model.Category
	Rent     *model.Category
	Travel   *model.Category
	Salary   *model.Category
	Savings  *model.Category
	Movement *model.Category
}

// NewFixture seeds a ledger with expense, income and transfer categories and
// a spread of transactions across a year boundary:
//
//	2023-12-30  expense  Food     40.00
//	2023-12-31  expense  Rent    900.00
//	2024-01-01  expense  Food     25.50
//	2024-01-01  income   Salary 3000.00
//	2024-01-15  transfer Movement 500.00
//	2024-02-10  expense  Food     60.00
//	2024-02-10  expense  -        12.00  (uncategorized)
//	2024-03-01  expense  Food     50.00
//	2024-03-15  expense  Food     30.00
//	2024-03-01  income   Salary 1000.00
//
// Travel and Savings never receive transactions.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	db := SetupTestDB(t)

	f := &Fixture{
		DB:       db,
		Food:     db.Category("Food", model.TypeExpense),
		Rent:     db.Category("Rent", model.TypeExpense),
		Travel:   db.Category("Travel", model.TypeExpense),
		Salary:   db.Category("Salary", model.TypeIncome),
		Savings:  db.Category("Savings", model.TypeIncome),
		Movement: db.Category("Account Moves", model.TypeTransfer),
	}

	db.Transaction("2023-12-30", model.TypeExpense, "40.00", f.Food)
	db.Transaction("2023-12-31", model.TypeExpense, "900.00", f.Rent)
	db.Transaction("2024-01-01", model.TypeExpense, "25.50", f.Food)
	db.Transaction("2024-01-01", model.TypeIncome, "3000.00", f.Salary)
	db.Transaction("2024-01-15", model.TypeTransfer, "500.00", f.Movement)
	db.Transaction("2024-02-10", model.TypeExpense, "60.00", f.Food)
	db.Transaction("2024-02-10", model.TypeExpense, "12.00", nil)
	db.Transaction("2024-03-01", model.TypeExpense, "50.00", f.Food)
	db.Transaction("2024-03-15", model.TypeExpense, "30.00", f.Food)
	db.Transaction("2024-03-01", model.TypeIncome, "1000.00", f.Salary)

	return f
}
