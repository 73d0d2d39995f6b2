// Package tui implements the interactive ledger dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/tui/themes"
)

// Tab is one dashboard page.
type Tab int

// Dashboard tabs in display order.
const (
	TabOverview Tab = iota
	TabCategories
	TabBudgets
	tabCount
)

var tabNames = [...]string{"Overview", "Categories", "Budgets"}

func (t Tab) String() string {
	return tabNames[t]
}

// Model holds the dashboard state.
type Model struct {
	ctx        context.Context
	err        error
	theme      themes.Theme
	config     Config
	keymap     KeyMap
	help       help.Model
	categories table.Model
	bar        progress.Model
	preset     report.Preset
	data       snapshot
	tab        Tab
	month      int
	year       int
	seq        int
	width      int
	height     int
	loading    bool
	quitting   bool
}

// New creates a dashboard model.
func New(ctx context.Context, cfg Config) Model {
	today := cfg.Reporter.Today()

	cats := table.New(
		table.WithColumns(categoryColumns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(max(cfg.Height-10, 5)),
	)

	return Model{
		ctx:        ctx,
		config:     cfg,
		theme:      cfg.Theme,
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		categories: cats,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		preset:     cfg.Preset,
		month:      int(today.Month()),
		year:       today.Year(),
		width:      cfg.Width,
		height:     cfg.Height,
		seq:        1,
		loading:    true,
	}
}

func categoryColumns(width int) []table.Column {
	name := max(width-40, 16)
	return []table.Column{
		{Title: "Category", Width: name},
		{Title: "Total", Width: 14},
		{Title: "Share", Width: 8},
	}
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.categories.SetColumns(categoryColumns(msg.Width))
		m.categories.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case dashboardLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.data = msg.data
			m.categories.SetRows(categoryRows(msg.data.breakdown))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.NextTab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, m.keymap.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keymap.PrevMonth):
		m.shiftMonth(-1)
		return m.reload()
	case key.Matches(msg, m.keymap.NextMonth):
		m.shiftMonth(1)
		return m.reload()
	case key.Matches(msg, m.keymap.Preset):
		m.preset = m.preset.Next()
		return m.reload()
	case key.Matches(msg, m.keymap.Reload):
		return m.reload()
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
	case m.tab == TabCategories:
		var cmd tea.Cmd
		m.categories, cmd = m.categories.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) shiftMonth(delta int) {
	t := time.Date(m.year, time.Month(m.month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	m.month = int(t.Month())
	m.year = t.Year()
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.load()
}

func categoryRows(rows []report.CategoryTotal) []table.Row {
	var sum decimal.Decimal
	for _, r := range rows {
		sum = sum.Add(r.Total)
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Name, cli.FormatMoney(r.Total), share(r, sum)})
	}
	return out
}

// seriesGrouping picks a bucket size that keeps the overview readable.
func seriesGrouping(days int) report.Grouping {
	switch {
	case days <= 31:
		return report.GroupDay
	case days <= 120:
		return report.GroupWeek
	case days <= 3*366:
		return report.GroupMonth
	}
	return report.GroupYear
}
