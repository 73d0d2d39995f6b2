package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

// Default lookback windows used when a caller gives no start date.
const (
	DefaultTotalsDays = 30
	DefaultSeriesDays = 365
)

// Engine answers report queries against a Storage. Every call reads inside its
// own transaction, which is rolled back before the call returns.
type Engine struct {
	store service.Storage
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to resolve default ranges.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a report engine.
func NewEngine(store service.Storage, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine's current calendar date.
func (e *Engine) Today() time.Time {
	return model.Day(e.now())
}

// ResolveRange fills missing bounds: end defaults to today and start to
// defaultDays before end.
func (e *Engine) ResolveRange(start, end *time.Time, defaultDays int) (DateRange, error) {
	to := e.Today()
	if end != nil {
		to = model.Day(*end)
	}
	from := to.AddDate(0, 0, -defaultDays)
	if start != nil {
		from = model.Day(*start)
	}
	return NewDateRange(from, to)
}

// GetTransactionTotals sums amounts per (bucket, type) over [start, end].
func (e *Engine) GetTransactionTotals(ctx context.Context, start, end *time.Time, g Grouping) ([]TotalRow, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrouping, g)
	}
	r, err := e.ResolveRange(start, end, DefaultTotalsDays)
	if err != nil {
		return nil, err
	}

	var rows []TotalRow
	err = e.read(ctx, func(tx service.Transaction) error {
		txns, err := transactionsIn(ctx, tx, r)
		if err != nil {
			return err
		}
		rows = Totals(txns, r, g)
		return nil
	})
	return rows, err
}

// GetCategoryBreakdown sums transactions of type typ per category over [start, end].
func (e *Engine) GetCategoryBreakdown(ctx context.Context, start, end *time.Time, typ model.TransactionType) ([]CategoryTotal, error) {
	if typ == "" {
		typ = model.TypeExpense
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	r, err := e.ResolveRange(start, end, DefaultTotalsDays)
	if err != nil {
		return nil, err
	}

	var rows []CategoryTotal
	err = e.read(ctx, func(tx service.Transaction) error {
		txns, err := tx.GetTransactions(ctx, service.TransactionFilter{
			StartDate: &r.Start,
			EndDate:   &r.End,
			Type:      &typ,
		})
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		cats, err := tx.GetCategories(ctx, service.CategoryFilter{})
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		rows = Breakdown(txns, cats, r, typ)
		return nil
	})
	return rows, err
}

// GetBudgetStatus compares each expense budget of month/year with its actual spend.
func (e *Engine) GetBudgetStatus(ctx context.Context, month, year int) ([]BudgetStatus, error) {
	window, err := MonthRange(month, year)
	if err != nil {
		return nil, err
	}

	var rows []BudgetStatus
	err = e.read(ctx, func(tx service.Transaction) error {
		budgets, err := tx.GetBudgets(ctx, service.BudgetFilter{Month: month, Year: year})
		if err != nil {
			return fmt.Errorf("failed to load budgets: %w", err)
		}
		if len(budgets) == 0 {
			return nil
		}
		cats, err := tx.GetCategories(ctx, service.CategoryFilter{})
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		expense := model.TypeExpense
		txns, err := tx.GetTransactions(ctx, service.TransactionFilter{
			StartDate: &window.Start,
			EndDate:   &window.End,
			Type:      &expense,
		})
		if err != nil {
			return fmt.Errorf("failed to load transactions: %w", err)
		}
		rows, err = Status(budgets, cats, txns, month, year)
		return err
	})
	return rows, err
}

// GetIncomeVsExpenses returns income and expense per bucket over [start, end].
func (e *Engine) GetIncomeVsExpenses(ctx context.Context, start, end *time.Time, g Grouping) ([]SeriesPoint, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrouping, g)
	}
	r, err := e.ResolveRange(start, end, DefaultSeriesDays)
	if err != nil {
		return nil, err
	}

	var points []SeriesPoint
	err = e.read(ctx, func(tx service.Transaction) error {
		txns, err := transactionsIn(ctx, tx, r)
		if err != nil {
			return err
		}
		points = IncomeVsExpenses(txns, r, g)
		return nil
	})
	return points, err
}

// GetSummary returns headline figures for [start, end].
func (e *Engine) GetSummary(ctx context.Context, start, end *time.Time) (Summary, error) {
	r, err := e.ResolveRange(start, end, DefaultTotalsDays)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	err = e.read(ctx, func(tx service.Transaction) error {
		txns, err := transactionsIn(ctx, tx, r)
		if err != nil {
			return err
		}
		s = Summarize(txns, r)
		return nil
	})
	return s, err
}

// BuildExport gathers everything an external report needs from one read:
// summary, monthly series and expense breakdown over r, and budget status
// for the whole month of r's end date.
func (e *Engine) BuildExport(ctx context.Context, r DateRange) (*service.ExportData, error) {
	month, year := int(r.End.Month()), r.End.Year()
	window, _ := MonthRange(month, year)

	data := &service.ExportData{
		Start:       r.Start,
		End:         r.End,
		BudgetMonth: month,
		BudgetYear:  year,
	}
	err := e.read(ctx, func(tx service.Transaction) error {
		// The budget block covers the whole month even when r ends mid-month.
		load := r
		if window.Start.Before(load.Start) {
			load.Start = window.Start
		}
		if window.End.After(load.End) {
			load.End = window.End
		}
		txns, err := transactionsIn(ctx, tx, load)
		if err != nil {
			return err
		}
		cats, err := tx.GetCategories(ctx, service.CategoryFilter{})
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		budgets, err := tx.GetBudgets(ctx, service.BudgetFilter{Month: month, Year: year})
		if err != nil {
			return fmt.Errorf("failed to load budgets: %w", err)
		}

		s := Summarize(txns, r)
		data.TotalIncome = s.TotalIncome
		data.TotalExpense = s.TotalExpense
		data.Net = s.Net
		data.SavingsRate = s.SavingsRate

		for _, p := range IncomeVsExpenses(txns, r, GroupMonth) {
			data.Series = append(data.Series, service.ExportSeriesRow{
				Label:   p.Label(),
				Income:  p.Income,
				Expense: p.Expense,
			})
		}
		for _, c := range Breakdown(txns, cats, r, model.TypeExpense) {
			data.Breakdown = append(data.Breakdown, service.ExportBreakdownRow{
				Category: c.Name,
				Color:    c.ColorTag,
				Total:    c.Total,
			})
		}

		statuses, err := Status(budgets, cats, txns, month, year)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			data.Budgets = append(data.Budgets, service.ExportBudgetRow{
				Category:   st.CategoryName,
				Budget:     st.Budget,
				Actual:     st.Actual,
				Remaining:  st.Remaining,
				Percentage: st.Percentage,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// read runs fn inside a read transaction that is always rolled back.
func (e *Engine) read(ctx context.Context, fn func(tx service.Transaction) error) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to open read transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Debug("read transaction rollback failed", "error", rbErr)
		}
	}()
	return fn(tx)
}

func transactionsIn(ctx context.Context, tx service.Transaction, r DateRange) ([]model.Transaction, error) {
	txns, err := tx.GetTransactions(ctx, service.TransactionFilter{StartDate: &r.Start, EndDate: &r.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

// SumByType adds up rows per transaction type across all buckets.
func SumByType(rows []TotalRow) map[model.TransactionType]decimal.Decimal {
	sums := make(map[model.TransactionType]decimal.Decimal, len(model.TransactionTypes))
	for _, row := range rows {
		sums[row.Type] = sums[row.Type].Add(row.Total)
	}
	return sums
}
