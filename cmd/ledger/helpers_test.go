package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/sheets"
	"github.com/Veraticus/ledger/internal/storage"
)

func TestRangeFlagsResolve(t *testing.T) {
	today := model.Date(2024, time.March, 15)

	start, end, err := (&rangeFlags{preset: "last-month"}).resolve(today)
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, time.February, 1), *start)
	assert.Equal(t, model.Date(2024, time.February, 29), *end)

	start, end, err = (&rangeFlags{from: "2024-01-10"}).resolve(today)
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, time.January, 10), *start)
	assert.Nil(t, end)

	start, end, err = (&rangeFlags{}).resolve(today)
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	_, _, err = (&rangeFlags{preset: "this-year", to: "2024-01-01"}).resolve(today)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in        string
		wantMonth int
		wantYear  int
		wantErr   bool
	}{
		{in: "2024-07", wantMonth: 7, wantYear: 2024},
		{in: "12", wantMonth: 12, wantYear: 2030},
		{in: "1", wantMonth: 1, wantYear: 2030},
		{in: "0", wantErr: true},
		{in: "2024-13", wantErr: true},
		{in: "july", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, y, err := parseMonth(tt.in, 2030)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonth, m)
			assert.Equal(t, tt.wantYear, y)
		})
	}
}

func TestParseAmountCondition(t *testing.T) {
	tests := []struct {
		expr     string
		wantCond model.AmountCondition
		value    string
		lo, hi   string
		wantErr  bool
	}{
		{expr: "", wantCond: model.AmountAny},
		{expr: "any", wantCond: model.AmountAny},
		{expr: "<50", wantCond: model.AmountLessThan, value: "50"},
		{expr: "<=50", wantCond: model.AmountLessEqual, value: "50"},
		{expr: "=12.5", wantCond: model.AmountEqual, value: "12.5"},
		{expr: ">= $10", wantCond: model.AmountGreaterEqual, value: "10"},
		{expr: ">100", wantCond: model.AmountGreaterThan, value: "100"},
		{expr: "5..20", wantCond: model.AmountRange, lo: "5", hi: "20"},
		{expr: "..20", wantCond: model.AmountRange, hi: "20"},
		{expr: "5..", wantCond: model.AmountRange, lo: "5"},
		{expr: "about 5", wantErr: true},
		{expr: "<ten", wantErr: true},
	}

	check := func(t *testing.T, want string, got *decimal.Decimal) {
		t.Helper()
		if want == "" {
			assert.Nil(t, got)
			return
		}
		require.NotNil(t, got)
		assert.True(t, decimal.RequireFromString(want).Equal(*got), "got %s", got)
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			var rule model.NewCategoryRule
			err := parseAmountCondition(tt.expr, &rule)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCond, rule.AmountCondition)
			check(t, tt.value, rule.AmountValue)
			check(t, tt.lo, rule.AmountMin)
			check(t, tt.hi, rule.AmountMax)
		})
	}
}

func TestParseAmountAndID(t *testing.T) {
	d, err := parseAmount(" $1250.75 ")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(d))

	_, err = parseAmount("ten")
	assert.ErrorIs(t, err, common.ErrValidation)

	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "x"} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, common.ErrValidation, bad)
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}

func newExportEngine(t *testing.T) *report.Engine {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	food, err := store.CreateCategory(ctx, model.NewCategory{Name: "Food", Type: model.TypeExpense})
	require.NoError(t, err)
	_, err = store.AddTransaction(ctx, model.NewTransaction{
		Date: model.Date(2024, time.March, 4), Type: model.TypeExpense, Amount: decimal.NewFromInt(45), CategoryID: &food.ID,
	})
	require.NoError(t, err)
	_, err = store.SetBudget(ctx, model.BudgetInput{CategoryID: food.ID, Amount: decimal.NewFromInt(90), Month: 3, Year: 2024})
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC) }
	return report.NewEngine(store, report.WithClock(clock))
}

func TestRunExportHandsReportToWriter(t *testing.T) {
	engine := newExportEngine(t)
	writer := sheets.NewMockWriter()

	r, err := exportRange(engine, &rangeFlags{})
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, time.March, 1), r.Start)
	assert.Equal(t, model.Date(2024, time.March, 20), r.End)

	require.NoError(t, runExport(context.Background(), engine, writer, r))

	require.Equal(t, 1, writer.WriteCallCount)
	data := writer.LastData
	require.NotNil(t, data)
	assert.Equal(t, "45.00", data.TotalExpense.StringFixed(2))
	require.Len(t, data.Breakdown, 1)
	assert.Equal(t, "Food", data.Breakdown[0].Category)
	require.Len(t, data.Budgets, 1)
	assert.InDelta(t, 50.0, data.Budgets[0].Percentage, 1e-9)
}

func TestRunExportReportsWriterFailure(t *testing.T) {
	engine := newExportEngine(t)
	writer := sheets.NewMockWriter()
	writer.SetWriteError(common.ErrRemoteUnavailable)

	r, err := exportRange(engine, &rangeFlags{preset: "this-year"})
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, time.January, 1), r.Start)

	err = runExport(context.Background(), engine, writer, r)
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
	assert.Len(t, writer.GetWriteCalls(), 1)
}

func TestExportRangeUsesDefaultWindowForOpenBounds(t *testing.T) {
	engine := newExportEngine(t)

	r, err := exportRange(engine, &rangeFlags{to: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, model.Date(2024, time.March, 10), r.End)
	assert.Equal(t, model.Date(2024, time.February, 9), r.Start)

	_, err = exportRange(engine, &rangeFlags{from: "2024-04-01", to: "2024-03-01"})
	assert.True(t, errors.Is(err, common.ErrValidation))
}
