package pattern

import (
	"context"
	"fmt"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
)

// Validator implements TransactionValidator.
type Validator struct{}

// NewValidator creates a new transaction validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCategory ensures the transaction's type matches the category type.
func (v *Validator) ValidateCategory(_ context.Context, txn model.NewTransaction, category model.Category) error {
	if category.Type != txn.Type {
		return fmt.Errorf("%w: category %q has type %s but transaction has type %s",
			common.ErrValidation, category.Name, category.Type, txn.Type)
	}
	return nil
}
