package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ledger/internal/model"
)

// load fetches every report the dashboard shows. The four queries run
// concurrently; the first failure cancels the rest.
func (m Model) load() tea.Cmd {
	reporter := m.config.Reporter
	r := m.preset.Range(reporter.Today())
	month, year, seq := m.month, m.year, m.seq
	parent, timeout := m.ctx, m.config.LoadTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		var data snapshot
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			s, err := reporter.GetSummary(ctx, &r.Start, &r.End)
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			data.summary = s
			return nil
		})
		g.Go(func() error {
			points, err := reporter.GetIncomeVsExpenses(ctx, &r.Start, &r.End, seriesGrouping(r.Days()))
			if err != nil {
				return fmt.Errorf("income vs expenses: %w", err)
			}
			data.series = points
			return nil
		})
		g.Go(func() error {
			rows, err := reporter.GetCategoryBreakdown(ctx, &r.Start, &r.End, model.TypeExpense)
			if err != nil {
				return fmt.Errorf("category breakdown: %w", err)
			}
			data.breakdown = rows
			return nil
		})
		g.Go(func() error {
			rows, err := reporter.GetBudgetStatus(ctx, month, year)
			if err != nil {
				return fmt.Errorf("budget status: %w", err)
			}
			data.budgets = rows
			return nil
		})

		if err := g.Wait(); err != nil {
			return dashboardLoadedMsg{seq: seq, err: err}
		}
		return dashboardLoadedMsg{seq: seq, data: data}
	}
}
