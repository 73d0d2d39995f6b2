// Package storage provides the SQLite persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidID          = fmt.Errorf("%w: id must be positive", common.ErrValidation)
	ErrInvalidDateRange   = fmt.Errorf("%w: start date must not be after end date", common.ErrValidation)
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", common.ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: invalid category", common.ErrValidation)
	ErrInvalidBudget      = fmt.Errorf("%w: invalid budget", common.ErrValidation)
	ErrInvalidRule        = fmt.Errorf("%w: invalid rule", common.ErrValidation)
	ErrEmptyUpdate        = fmt.Errorf("%w: nothing to update", common.ErrValidation)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Amounts validate as float64 so gt/lt tags apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		return model.TransactionType(fl.Field().String()).Valid()
	})

	return v
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return nil
}

// validateStruct runs struct tag validation and wraps every failure in kind.
func validateStruct(kind error, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", kind, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldErrorToString(fe))
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(msgs, "; "))
}

func fieldErrorToString(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "txtype":
		return fmt.Sprintf("%s %q must be income, expense or transfer", field, e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "min", "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s is out of range", field)
	default:
		return field + " is invalid"
	}
}

func validateNewTransaction(txn model.NewTransaction) error {
	return validateStruct(ErrInvalidTransaction, txn)
}

// validateTransactionUpdate checks the fields present in a partial update.
func validateTransactionUpdate(update model.TransactionUpdate) error {
	if update.IsEmpty() {
		return ErrEmptyUpdate
	}
	if update.Amount != nil && !update.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidTransaction)
	}
	if update.Type != nil && !update.Type.Valid() {
		return fmt.Errorf("%w: type %q must be income, expense or transfer", ErrInvalidTransaction, *update.Type)
	}
	if update.Date != nil && update.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}
	if update.Description != nil && len(*update.Description) > 500 {
		return fmt.Errorf("%w: description must be at most 500 characters", ErrInvalidTransaction)
	}
	if update.CategoryID != nil && *update.CategoryID <= 0 {
		return fmt.Errorf("%w: category id must be positive", ErrInvalidTransaction)
	}
	return nil
}

func validateNewCategory(category model.NewCategory) error {
	return validateStruct(ErrInvalidCategory, category)
}

func validateCategoryUpdate(update model.CategoryUpdate) error {
	if update.IsEmpty() {
		return ErrEmptyUpdate
	}
	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return fmt.Errorf("%w: name must not be blank", ErrInvalidCategory)
		}
		if len(*update.Name) > 100 {
			return fmt.Errorf("%w: name must be at most 100 characters", ErrInvalidCategory)
		}
	}
	if update.Type != nil && !update.Type.Valid() {
		return fmt.Errorf("%w: type %q must be income, expense or transfer", ErrInvalidCategory, *update.Type)
	}
	if update.ColorTag != nil && len(*update.ColorTag) > 32 {
		return fmt.Errorf("%w: color tag must be at most 32 characters", ErrInvalidCategory)
	}
	return nil
}

func validateBudgetInput(budget model.BudgetInput) error {
	return validateStruct(ErrInvalidBudget, budget)
}

// validateNewRule checks tags first, then that the amount bounds fit the condition.
func validateNewRule(rule model.NewCategoryRule) error {
	if err := validateStruct(ErrInvalidRule, rule); err != nil {
		return err
	}
	if rule.Type != nil && !rule.Type.Valid() {
		return fmt.Errorf("%w: type %q must be income, expense or transfer", ErrInvalidRule, *rule.Type)
	}

	cond := rule.AmountCondition
	switch {
	case cond == "" || cond == model.AmountAny:
	case cond.NeedsValue():
		if rule.AmountValue == nil {
			return fmt.Errorf("%w: amount condition %q needs a value", ErrInvalidRule, cond)
		}
	case cond == model.AmountRange:
		if rule.AmountMin == nil && rule.AmountMax == nil {
			return fmt.Errorf("%w: range needs a minimum or a maximum", ErrInvalidRule)
		}
		if rule.AmountMin != nil && rule.AmountMax != nil && rule.AmountMin.GreaterThan(*rule.AmountMax) {
			return fmt.Errorf("%w: range minimum %s exceeds maximum %s", ErrInvalidRule, rule.AmountMin, rule.AmountMax)
		}
	default:
		return fmt.Errorf("%w: unknown amount condition %q", ErrInvalidRule, cond)
	}

	if rule.IsRegex {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%w: pattern: %w", ErrInvalidRule, err)
		}
	}
	return nil
}

// ValidateDateRange rejects ranges whose start falls after their end.
func ValidateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && model.Day(*start).After(model.Day(*end)) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	return nil
}
