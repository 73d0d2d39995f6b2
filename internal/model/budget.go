package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a spending limit for one category in one calendar month.
type Budget struct {
	Amount     decimal.Decimal
	CategoryID int64
	ID         int64
	Month      int
	Year       int
}

// Period returns the first day of the budget's month.
func (b Budget) Period() time.Time {
	return Date(b.Year, time.Month(b.Month), 1)
}

// BudgetInput identifies a budget by (category, month, year) and carries its amount.
type BudgetInput struct {
	Amount     decimal.Decimal `validate:"gt=0"`
	CategoryID int64           `validate:"gt=0"`
	Month      int             `validate:"min=1,max=12"`
	Year       int             `validate:"min=1,max=9999"`
}
