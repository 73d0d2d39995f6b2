package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountCondition is how a rule compares a transaction amount.
type AmountCondition string

// Amount conditions.
const (
	AmountAny          AmountCondition = "any"
	AmountLessThan     AmountCondition = "lt"
	AmountLessEqual    AmountCondition = "le"
	AmountEqual        AmountCondition = "eq"
	AmountGreaterEqual AmountCondition = "ge"
	AmountGreaterThan  AmountCondition = "gt"
	AmountRange        AmountCondition = "range"
)

// Valid reports whether c is a known condition.
func (c AmountCondition) Valid() bool {
	switch c {
	case AmountAny, AmountLessThan, AmountLessEqual, AmountEqual,
		AmountGreaterEqual, AmountGreaterThan, AmountRange:
		return true
	}
	return false
}

// NeedsValue reports whether the condition compares against a single value.
func (c AmountCondition) NeedsValue() bool {
	switch c {
	case AmountLessThan, AmountLessEqual, AmountEqual, AmountGreaterEqual, AmountGreaterThan:
		return true
	}
	return false
}

// CategoryRule files matching uncategorized transactions under a category.
// An empty Pattern matches every description.
type CategoryRule struct {
	CreatedAt       time.Time
	AmountValue     *decimal.Decimal
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	Type            *TransactionType
	Name            string
	Pattern         string
	AmountCondition AmountCondition
	ID              int64
	CategoryID      int64
	Priority        int
	UseCount        int
	IsRegex         bool
}

// NewCategoryRule holds the fields needed to create a rule.
type NewCategoryRule struct {
	AmountValue     *decimal.Decimal
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	Type            *TransactionType
	Name            string `validate:"notblank,max=100"`
	Pattern         string `validate:"max=200"`
	AmountCondition AmountCondition
	CategoryID      int64 `validate:"gt=0"`
	Priority        int
	IsRegex         bool
}
