package tui

import (
	"context"
	"time"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/tui/themes"
)

// Reporter is the slice of the report engine the dashboard reads from.
type Reporter interface {
	Today() time.Time
	GetSummary(ctx context.Context, start, end *time.Time) (report.Summary, error)
	GetIncomeVsExpenses(ctx context.Context, start, end *time.Time, g report.Grouping) ([]report.SeriesPoint, error)
	GetCategoryBreakdown(ctx context.Context, start, end *time.Time, typ model.TransactionType) ([]report.CategoryTotal, error)
	GetBudgetStatus(ctx context.Context, month, year int) ([]report.BudgetStatus, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Reporter    Reporter
	Preset      report.Preset
	LoadTimeout time.Duration
	Width       int
	Height      int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Preset:      report.PresetThisMonth,
		LoadTimeout: 30 * time.Second,
		Width:       100,
		Height:      30,
	}
}

// WithReporter sets the report source.
func WithReporter(r Reporter) Option {
	return func(c *Config) {
		c.Reporter = r
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithPreset sets the initial date range preset.
func WithPreset(p report.Preset) Option {
	return func(c *Config) {
		c.Preset = p
	}
}

// WithSize sets the initial terminal dimensions.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
