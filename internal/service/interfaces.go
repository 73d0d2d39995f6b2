// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Nil fields do not filter. Date bounds are inclusive calendar dates.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64
	Type       *model.TransactionType
	Limit      int
	Offset     int
}

// CategoryFilter defines filtering options for category queries.
type CategoryFilter struct {
	Type *model.TransactionType
}

// BudgetFilter defines filtering options for budget queries. Zero values do not filter.
type BudgetFilter struct {
	CategoryID int64
	Month      int
	Year       int
}

// Storage defines the contract for the ledger persistence layer.
type Storage interface {
	// Transaction operations
	AddTransaction(ctx context.Context, txn model.NewTransaction) (*model.Transaction, error)
	ImportTransactions(ctx context.Context, txns []model.NewTransaction) (int, error)
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, update model.TransactionUpdate) error
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransactionCount(ctx context.Context) (int, error)

	// Category operations
	GetCategories(ctx context.Context, filter CategoryFilter) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category model.NewCategory) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, update model.CategoryUpdate) error
	DeleteCategory(ctx context.Context, id int64) error
	SeedDefaultCategories(ctx context.Context) (int, error)

	// Budget operations
	SetBudget(ctx context.Context, budget model.BudgetInput) (*model.Budget, error)
	GetBudgets(ctx context.Context, filter BudgetFilter) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	// Category rule operations
	CreateRule(ctx context.Context, rule model.NewCategoryRule) (*model.CategoryRule, error)
	GetRules(ctx context.Context) ([]model.CategoryRule, error)
	DeleteRule(ctx context.Context, id int64) error
	IncrementRuleUseCount(ctx context.Context, id int64, n int) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	// Operation names the call in retry logs.
	Operation    string
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ReportWriter publishes aggregated reports to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, data *ExportData) error
}

// ExportData is the flattened report handed to a ReportWriter.
type ExportData struct {
	Start        time.Time
	End          time.Time
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Net          decimal.Decimal
	SavingsRate  float64
	Series       []ExportSeriesRow
	Breakdown    []ExportBreakdownRow
	Budgets      []ExportBudgetRow
	BudgetMonth  int
	BudgetYear   int
}

// ExportSeriesRow is one bucket of the income-vs-expense series.
type ExportSeriesRow struct {
	Label   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// ExportBreakdownRow is one category of the expense breakdown.
type ExportBreakdownRow struct {
	Category string
	Color    string
	Total    decimal.Decimal
}

// ExportBudgetRow is one line of budget status.
type ExportBudgetRow struct {
	Category   string
	Budget     decimal.Decimal
	Actual     decimal.Decimal
	Remaining  decimal.Decimal
	Percentage float64
}
