package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/config"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("could not open the ledger database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// rangeFlags are the --from/--to/--preset flags shared by report commands.
type rangeFlags struct {
	from   string
	to     string
	preset string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "date range preset ("+presetNames()+")")
}

// resolve returns the requested bounds. Nil bounds let the engine apply its defaults.
func (f *rangeFlags) resolve(today time.Time) (*time.Time, *time.Time, error) {
	if f.preset != "" {
		if f.from != "" || f.to != "" {
			return nil, nil, fmt.Errorf("%w: --preset cannot be combined with --from or --to", common.ErrValidation)
		}
		p, err := report.ParsePreset(f.preset)
		if err != nil {
			return nil, nil, err
		}
		r := p.Range(today)
		return &r.Start, &r.End, nil
	}

	start, err := optionalDate(f.from)
	if err != nil {
		return nil, nil, err
	}
	end, err := optionalDate(f.to)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func presetNames() string {
	names := make([]string, 0, len(report.Presets))
	for _, p := range report.Presets {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return &d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", common.ErrValidation, s)
	}
	return d, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", common.ErrValidation, s)
	}
	return id, nil
}

// parseMonth accepts "2024-03" or "3"; a bare month uses year.
func parseMonth(s string, year int) (int, int, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return int(t.Month()), t.Year(), nil
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, report.ErrInvalidMonth
	}
	return m, year, nil
}

func renderer(cmd *cobra.Command) (*cli.Renderer, error) {
	name, _ := cmd.Flags().GetString("format")
	format, err := cli.ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return cli.NewRenderer(cmd.OutOrStdout(), format), nil
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", string(cli.FormatTable), "output format (table, json)")
}

// resolveCategory looks a category up by id or by name.
func resolveCategory(ctx context.Context, store *storage.SQLiteStorage, ref string) (*model.Category, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.GetCategoryByID(ctx, id)
	}
	cat, err := store.GetCategoryByName(ctx, ref)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("no category named %q", ref), err)
	}
	return cat, err
}

func categoryNames(cats []model.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}
