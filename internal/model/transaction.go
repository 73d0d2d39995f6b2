package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date format used for storage and labels.
const DateLayout = "2006-01-02"

// TransactionType is the closed set of transaction kinds.
type TransactionType string

const (
	// TypeIncome is money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense is money going out.
	TypeExpense TransactionType = "expense"
	// TypeTransfer moves money between the user's own accounts.
	TypeTransfer TransactionType = "transfer"
)

// TransactionTypes lists every valid type in display order.
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense, TypeTransfer}

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Rank orders types for stable output: income, expense, transfer.
func (t TransactionType) Rank() int {
	switch t {
	case TypeIncome:
		return 0
	case TypeExpense:
		return 1
	case TypeTransfer:
		return 2
	}
	return 3
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q (want income, expense or transfer)", s)
	}
	return t, nil
}

// Transaction is a single recorded money movement.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	CategoryID  *int64
	Amount      decimal.Decimal
	Description string
	ExternalID  string // import dedupe key, empty for manual entries
	Type        TransactionType
	ID          int64
}

// HasCategory reports whether the transaction is categorized.
func (t *Transaction) HasCategory() bool {
	return t.CategoryID != nil
}

// NewTransaction holds the fields needed to record a transaction.
type NewTransaction struct {
	Date        time.Time       `validate:"required"`
	CategoryID  *int64          `validate:"omitempty,gt=0"`
	Amount      decimal.Decimal `validate:"gt=0"`
	Description string          `validate:"max=500"`
	ExternalID  string          `validate:"max=200"`
	Type        TransactionType `validate:"txtype"`
}

// TransactionUpdate lists the mutable fields of a transaction.
// Nil fields are left untouched. ClearCategory removes the category link.
type TransactionUpdate struct {
	Amount        *decimal.Decimal
	Description   *string
	Date          *time.Time
	Type          *TransactionType
	CategoryID    *int64
	ClearCategory bool
}

// IsEmpty reports whether the update changes nothing.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Description == nil && u.Date == nil &&
		u.Type == nil && u.CategoryID == nil && !u.ClearCategory
}

// Apply returns a copy of txn with the update applied.
func (u TransactionUpdate) Apply(txn Transaction) Transaction {
	if u.Amount != nil {
		txn.Amount = *u.Amount
	}
	if u.Description != nil {
		txn.Description = *u.Description
	}
	if u.Date != nil {
		txn.Date = Day(*u.Date)
	}
	if u.Type != nil {
		txn.Type = *u.Type
	}
	if u.ClearCategory {
		txn.CategoryID = nil
	} else if u.CategoryID != nil {
		id := *u.CategoryID
		txn.CategoryID = &id
	}
	return txn
}

// Day truncates t to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
