package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
)

func TestValidateContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	if err := validateContext(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("validateContext(nil) = %v, want ErrNilContext", err)
	}
	if err := validateContext(context.Background()); err != nil {
		t.Errorf("validateContext(ctx) = %v, want nil", err)
	}
}

func TestValidateNewTransaction(t *testing.T) {
	valid := model.NewTransaction{
		Amount: decimal.RequireFromString("0.01"),
		Date:   model.Date(2024, time.January, 1),
		Type:   model.TypeExpense,
	}
	badCategory := int64(0)

	tests := []struct {
		mutate  func(*model.NewTransaction)
		name    string
		wantMsg string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.NewTransaction) {}},
		{name: "zero amount", mutate: func(n *model.NewTransaction) { n.Amount = decimal.Zero }, wantErr: true, wantMsg: "amount must be greater than 0"},
		{name: "unknown type", mutate: func(n *model.NewTransaction) { n.Type = "loan" }, wantErr: true, wantMsg: "must be income, expense or transfer"},
		{name: "zero category id", mutate: func(n *model.NewTransaction) { n.CategoryID = &badCategory }, wantErr: true},
		{name: "long description", mutate: func(n *model.NewTransaction) { n.Description = strings.Repeat("x", 501) }, wantErr: true, wantMsg: "at most 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			err := validateNewTransaction(txn)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, common.ErrValidation) {
				t.Fatalf("error %v does not wrap ErrValidation", err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateUpdates(t *testing.T) {
	if err := validateTransactionUpdate(model.TransactionUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("empty transaction update = %v, want ErrEmptyUpdate", err)
	}
	bad := model.TransactionType("bogus")
	if err := validateTransactionUpdate(model.TransactionUpdate{Type: &bad}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("bad type update = %v, want ErrInvalidTransaction", err)
	}

	blank := "  "
	if err := validateCategoryUpdate(model.CategoryUpdate{Name: &blank}); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("blank name update = %v, want ErrInvalidCategory", err)
	}
	name := "Dining"
	if err := validateCategoryUpdate(model.CategoryUpdate{Name: &name}); err != nil {
		t.Errorf("valid category update = %v", err)
	}
}

func TestValidateDateRange(t *testing.T) {
	early := model.Date(2024, time.March, 1)
	late := model.Date(2024, time.March, 31)

	if err := ValidateDateRange(&early, &late); err != nil {
		t.Errorf("ordered range = %v", err)
	}
	if err := ValidateDateRange(&early, &early); err != nil {
		t.Errorf("single-day range = %v", err)
	}
	if err := ValidateDateRange(nil, &late); err != nil {
		t.Errorf("open range = %v", err)
	}
	if err := ValidateDateRange(&late, &early); !errors.Is(err, common.ErrValidation) {
		t.Errorf("reversed range = %v, want ErrValidation", err)
	}
}
