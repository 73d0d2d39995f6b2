// Package testutil provides an in-memory ledger and fixture helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
	"github.com/Veraticus/ledger/internal/storage"
)

// TestDB is a migrated in-memory ledger bound to a test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	food := db.Category("Food", model.TypeExpense)
//	db.Transaction("2024-03-01", model.TypeExpense, "50", food)
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// Category creates a category or fails the test.
func (db *TestDB) Category(name string, typ model.TransactionType) *model.Category {
	db.t.Helper()
	cat, err := db.Storage.CreateCategory(context.Background(), model.NewCategory{
		Name:     name,
		Type:     typ,
		ColorTag: ColorFor(name),
	})
	if err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return cat
}

// Transaction records a transaction dated YYYY-MM-DD or fails the test.
// A nil category leaves the transaction uncategorized.
func (db *TestDB) Transaction(date string, typ model.TransactionType, amount string, cat *model.Category) *model.Transaction {
	db.t.Helper()
	input := model.NewTransaction{
		Amount: MustDecimal(db.t, amount),
		Date:   MustDate(db.t, date),
		Type:   typ,
	}
	if cat != nil {
		input.CategoryID = &cat.ID
	}
	txn, err := db.Storage.AddTransaction(context.Background(), input)
	if err != nil {
		db.t.Fatalf("failed to add transaction %s %s %s: %v", date, typ, amount, err)
	}
	return txn
}

// Budget sets a monthly budget or fails the test.
func (db *TestDB) Budget(cat *model.Category, amount string, month, year int) *model.Budget {
	db.t.Helper()
	b, err := db.Storage.SetBudget(context.Background(), model.BudgetInput{
		CategoryID: cat.ID,
		Amount:     MustDecimal(db.t, amount),
		Month:      month,
		Year:       year,
	})
	if err != nil {
		db.t.Fatalf("failed to set budget for %q: %v", cat.Name, err)
	}
	return b
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}

// MustDate parses YYYY-MM-DD or fails the test.
func MustDate(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("bad fixture date: %v", err)
	}
	return d
}

// MustDecimal parses an amount or fails the test.
func MustDecimal(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad fixture amount %q: %v", s, err)
	}
	return d
}

// FixedClock returns a clock that always reports the given date.
func FixedClock(t testing.TB, date string) func() time.Time {
	t.Helper()
	d := MustDate(t, date)
	return func() time.Time { return d }
}
