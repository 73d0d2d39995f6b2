// Package pattern files transactions under categories using stored category rules.
package pattern

import (
	"context"

	"github.com/Veraticus/ledger/internal/model"
)

// TransactionValidator checks that a category can hold a transaction.
type TransactionValidator interface {
	// ValidateCategory ensures the transaction's type matches the category type.
	ValidateCategory(ctx context.Context, txn model.NewTransaction, category model.Category) error
}

// Matcher evaluates transactions against category rules.
type Matcher interface {
	// Match returns the rules a transaction satisfies, highest priority first.
	Match(ctx context.Context, txn model.NewTransaction) ([]Rule, error)
}

// Rule is an alias to model.CategoryRule for convenience.
type Rule = model.CategoryRule
