package tui

import "github.com/Veraticus/ledger/internal/report"

// snapshot is everything one reload fetches.
type snapshot struct {
	summary   report.Summary
	series    []report.SeriesPoint
	breakdown []report.CategoryTotal
	budgets   []report.BudgetStatus
}

// dashboardLoadedMsg carries a finished reload. seq discards stale results.
type dashboardLoadedMsg struct {
	err  error
	data snapshot
	seq  int
}
