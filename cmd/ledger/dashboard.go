package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/tui"
	"github.com/Veraticus/ledger/internal/tui/themes"
)

func dashboardCmd() *cobra.Command {
	var (
		preset string
		theme  string
	)

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash", "ui"},
		Short:   "Open the interactive dashboard",
		Long: `Browse the summary, category breakdown and budget status in the terminal.

Keys: tab/shift+tab switch pages, left/right change the budget month,
p cycles the date range, r reloads, ? shows all keys, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := report.ParsePreset(preset)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if theme == "" {
				theme = viper.GetString("dashboard.theme")
			}

			return tui.Run(ctx,
				tui.WithReporter(report.NewEngine(store)),
				tui.WithPreset(p),
				tui.WithTheme(themes.ByName(theme)),
			)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", string(report.PresetThisMonth), "initial date range ("+presetNames()+")")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default, mono)")

	return cmd
}
