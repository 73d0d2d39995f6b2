package tui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/tui/themes"
)

type fakeReporter struct {
	budgetErr   error
	today       time.Time
	calls       atomic.Int32
	lastMonth   atomic.Int32
	lastGroup   atomic.Value
	lastSummary atomic.Value
}

func (f *fakeReporter) Today() time.Time { return f.today }

func (f *fakeReporter) GetSummary(_ context.Context, start, end *time.Time) (report.Summary, error) {
	f.calls.Add(1)
	r := report.DateRange{Start: *start, End: *end}
	f.lastSummary.Store(r)
	return report.Summary{
		Range:            r,
		TotalIncome:      decimal.NewFromInt(1000),
		TotalExpense:     decimal.NewFromInt(80),
		Net:              decimal.NewFromInt(920),
		SavingsRate:      92,
		TransactionCount: 3,
	}, nil
}

func (f *fakeReporter) GetIncomeVsExpenses(_ context.Context, _, _ *time.Time, g report.Grouping) ([]report.SeriesPoint, error) {
	f.calls.Add(1)
	f.lastGroup.Store(g)
	return []report.SeriesPoint{{
		Bucket:  report.GroupMonth.BucketOf(model.Date(2024, time.March, 1)),
		Income:  decimal.NewFromInt(1000),
		Expense: decimal.NewFromInt(80),
	}}, nil
}

func (f *fakeReporter) GetCategoryBreakdown(_ context.Context, _, _ *time.Time, typ model.TransactionType) ([]report.CategoryTotal, error) {
	f.calls.Add(1)
	if typ != model.TypeExpense {
		return nil, errors.New("dashboard only shows expenses")
	}
	return []report.CategoryTotal{
		{Name: "Food", Total: decimal.NewFromInt(60), CategoryID: 1},
		{Name: "Travel", Total: decimal.NewFromInt(20), CategoryID: 3},
	}, nil
}

func (f *fakeReporter) GetBudgetStatus(_ context.Context, month, _ int) ([]report.BudgetStatus, error) {
	f.calls.Add(1)
	f.lastMonth.Store(int32(month))
	if f.budgetErr != nil {
		return nil, f.budgetErr
	}
	return []report.BudgetStatus{{
		CategoryName: "Food",
		Budget:       decimal.NewFromInt(50),
		Actual:       decimal.NewFromInt(60),
		Remaining:    decimal.NewFromInt(-10),
		Percentage:   120,
	}}, nil
}

func newTestModel(t *testing.T, f *fakeReporter) Model {
	t.Helper()
	if f.today.IsZero() {
		f.today = model.Date(2024, time.March, 31)
	}
	cfg := defaultConfig()
	cfg.Reporter = f
	cfg.Theme = themes.Mono
	return New(context.Background(), cfg)
}

// step applies msg and returns the updated model with its command.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.load()()
	m, _ = step(t, m, msg)
	return m
}

func TestLoadFetchesEveryReport(t *testing.T) {
	f := &fakeReporter{}
	m := newTestModel(t, f)

	msg, ok := m.Init()().(dashboardLoadedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	assert.Equal(t, int32(4), f.calls.Load())
	assert.Equal(t, report.GroupDay, f.lastGroup.Load(), "a month-long preset is shown by day")
	assert.Equal(t, int32(3), f.lastMonth.Load())
	assert.Len(t, msg.data.breakdown, 2)
	assert.Len(t, msg.data.budgets, 1)
	assert.Equal(t, model.Date(2024, time.March, 1), f.lastSummary.Load().(report.DateRange).Start)
}

func TestLoadErrorIsShown(t *testing.T) {
	f := &fakeReporter{budgetErr: errors.New("database is locked")}
	m := loaded(t, newTestModel(t, f))

	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "budget status")
	assert.Contains(t, m.View(), "database is locked")
}

func TestTabNavigation(t *testing.T) {
	m := newTestModel(t, &fakeReporter{})

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabCategories, m.tab)
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabOverview, m.tab, "tabs wrap around")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabBudgets, m.tab)
}

func TestMonthNavigationReloads(t *testing.T) {
	f := &fakeReporter{today: model.Date(2024, time.January, 15)}
	m := loaded(t, newTestModel(t, f))
	seq := m.seq

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 12, m.month)
	assert.Equal(t, 2023, m.year)
	assert.Equal(t, seq+1, m.seq)
	assert.True(t, m.loading)
	require.NotNil(t, cmd)

	m, _ = step(t, m, cmd())
	assert.False(t, m.loading)
	assert.Equal(t, int32(12), f.lastMonth.Load())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.month)
	assert.Equal(t, 2024, m.year)
}

func TestPresetCycles(t *testing.T) {
	f := &fakeReporter{}
	m := newTestModel(t, f)
	require.Equal(t, report.PresetThisMonth, m.preset)

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	assert.Equal(t, report.PresetLastMonth, m.preset)
	require.NotNil(t, cmd)

	_, _ = step(t, m, cmd())
	assert.Equal(t, model.Date(2024, time.February, 1), f.lastSummary.Load().(report.DateRange).Start)
}

func TestStaleLoadIsIgnored(t *testing.T) {
	m := newTestModel(t, &fakeReporter{})
	stale := m.load()

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m, _ = step(t, m, stale())

	assert.True(t, m.loading, "a result from an older reload must not clear the newer one")
	assert.Empty(t, m.data.breakdown)
}

func TestViewRendersEachTab(t *testing.T) {
	m := loaded(t, newTestModel(t, &fakeReporter{}))

	overview := m.View()
	assert.Contains(t, overview, "Overview")
	assert.Contains(t, overview, "$920.00")
	assert.Contains(t, overview, "2024-03")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	categories := m.View()
	assert.Contains(t, categories, "Food")
	assert.Contains(t, categories, "75.0%")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	budgets := m.View()
	assert.Contains(t, budgets, "Budgets for March 2024")
	assert.Contains(t, budgets, "120.0%")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeReporter{})

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestSeriesGrouping(t *testing.T) {
	assert.Equal(t, report.GroupDay, seriesGrouping(7))
	assert.Equal(t, report.GroupWeek, seriesGrouping(90))
	assert.Equal(t, report.GroupMonth, seriesGrouping(365))
	assert.Equal(t, report.GroupYear, seriesGrouping(40000))
}

func TestRunRequiresReporter(t *testing.T) {
	assert.Error(t, Run(context.Background()))
}
