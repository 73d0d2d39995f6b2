package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/report"
)

var hundred = decimal.NewFromInt(100)

func share(r report.CategoryTotal, sum decimal.Decimal) string {
	if !sum.IsPositive() {
		return "0.0%"
	}
	return r.Total.Div(sum).Mul(hundred).StringFixed(1) + "%"
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(m.subtitle()))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(m.theme.StatusError.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.loading && m.data.summary.Range.Start.IsZero():
		b.WriteString(m.theme.StatusPending.Render("Loading..."))
		b.WriteString("\n")
	default:
		switch m.tab {
		case TabOverview:
			b.WriteString(m.viewOverview())
		case TabCategories:
			b.WriteString(m.viewCategories())
		case TabBudgets:
			b.WriteString(m.viewBudgets())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := range tabCount {
		style := m.theme.InactiveTab
		if t == m.tab {
			style = m.theme.ActiveTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) subtitle() string {
	r := m.preset.Range(m.config.Reporter.Today())
	s := fmt.Sprintf("%s (%s)", r.String(), m.preset)
	if m.tab == TabBudgets {
		s = "Budgets for " + time.Date(m.year, time.Month(m.month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	}
	if m.loading {
		s += "  refreshing..."
	}
	return s
}

func (m Model) viewOverview() string {
	s := m.data.summary
	net := cli.FormatMoney(s.Net)
	if s.Net.IsNegative() {
		net = m.theme.StatusError.Render(net)
	} else {
		net = m.theme.StatusSuccess.Render(net)
	}

	summary := fmt.Sprintf("Income        %s\nExpenses      %s\nTransfers     %s\nNet           %s\nSavings rate  %.1f%%\nTransactions  %d",
		cli.FormatMoney(s.TotalIncome),
		cli.FormatMoney(s.TotalExpense),
		cli.FormatMoney(s.TotalTransfer),
		net,
		s.SavingsRate,
		s.TransactionCount)

	var series strings.Builder
	if len(m.data.series) == 0 {
		series.WriteString(m.theme.StatusPending.Render("No income or expenses in range."))
	}
	for _, p := range m.data.series {
		fmt.Fprintf(&series, "%-10s  %14s  %14s\n", p.Label(), cli.FormatMoney(p.Income), cli.FormatMoney(p.Expense))
	}

	header := m.theme.Bold.Render(fmt.Sprintf("%-10s  %14s  %14s", "Period", "Income", "Expenses"))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.RoundedBox.Render(summary),
		"  ",
		m.theme.RoundedBox.Render(header+"\n"+strings.TrimRight(series.String(), "\n")),
	) + "\n"
}

func (m Model) viewCategories() string {
	if len(m.data.breakdown) == 0 {
		return m.theme.StatusPending.Render("No categorized expenses in range.") + "\n"
	}
	return m.categories.View() + "\n"
}

func (m Model) viewBudgets() string {
	if len(m.data.budgets) == 0 {
		return m.theme.StatusPending.Render("No budgets for this month. Add one with: ledger budget set") + "\n"
	}

	var b strings.Builder
	for _, s := range m.data.budgets {
		pct := fmt.Sprintf("%6.1f%%", s.Percentage)
		switch {
		case s.OverBudget():
			pct = m.theme.StatusError.Render(pct)
		case s.Percentage >= 80:
			pct = m.theme.StatusWarning.Render(pct)
		}
		fmt.Fprintf(&b, "%s %-18s %s %s  %s of %s\n",
			cli.Swatch(s.ColorTag),
			s.CategoryName,
			m.bar.ViewAs(min(s.Percentage/100, 1)),
			pct,
			cli.FormatMoney(s.Actual),
			cli.FormatMoney(s.Budget))
	}
	return b.String()
}
