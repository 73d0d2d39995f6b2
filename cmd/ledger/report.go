package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the ledger into reports",
		Long: `Aggregate transactions over a date range. Without --from/--to/--preset each
report uses its own default window ending today.`,
	}

	cmd.AddCommand(totalsReportCmd())
	cmd.AddCommand(breakdownReportCmd())
	cmd.AddCommand(seriesReportCmd())
	cmd.AddCommand(summaryReportCmd())

	return cmd
}

// reportFunc runs one report against an engine.
type reportFunc func(cmd *cobra.Command, engine *report.Engine) error

func newReportCmd(use, short string, dates *rangeFlags, run reportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			return run(cmd, report.NewEngine(store))
		},
	}
	dates.register(cmd)
	addFormatFlag(cmd)
	return cmd
}

func totalsReportCmd() *cobra.Command {
	var (
		dates rangeFlags
		group string
	)

	cmd := newReportCmd("totals", "Totals per period and transaction type", &dates,
		func(cmd *cobra.Command, engine *report.Engine) error {
			r, err := renderer(cmd)
			if err != nil {
				return err
			}
			g, err := report.ParseGrouping(group)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(engine.Today())
			if err != nil {
				return err
			}

			rows, err := engine.GetTransactionTotals(cmd.Context(), start, end, g)
			if err != nil {
				return fmt.Errorf("failed to compute totals: %w", err)
			}
			return r.Totals(rows)
		})

	cmd.Flags().StringVarP(&group, "group", "g", string(report.GroupMonth), "bucket size (day, week, month, year)")
	return cmd
}

func breakdownReportCmd() *cobra.Command {
	var (
		dates    rangeFlags
		typeName string
	)

	cmd := newReportCmd("breakdown", "Totals per category", &dates,
		func(cmd *cobra.Command, engine *report.Engine) error {
			r, err := renderer(cmd)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(engine.Today())
			if err != nil {
				return err
			}

			rows, err := engine.GetCategoryBreakdown(cmd.Context(), start, end, model.TransactionType(typeName))
			if err != nil {
				return fmt.Errorf("failed to compute breakdown: %w", err)
			}
			return r.Breakdown(rows)
		})

	cmd.Flags().StringVarP(&typeName, "type", "t", string(model.TypeExpense), "transaction type (income, expense, transfer)")
	return cmd
}

func seriesReportCmd() *cobra.Command {
	var (
		dates rangeFlags
		group string
	)

	cmd := newReportCmd("series", "Income against expenses per period", &dates,
		func(cmd *cobra.Command, engine *report.Engine) error {
			r, err := renderer(cmd)
			if err != nil {
				return err
			}
			g, err := report.ParseGrouping(group)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(engine.Today())
			if err != nil {
				return err
			}

			points, err := engine.GetIncomeVsExpenses(cmd.Context(), start, end, g)
			if err != nil {
				return fmt.Errorf("failed to compute income vs expenses: %w", err)
			}
			return r.Series(points)
		})

	cmd.Flags().StringVarP(&group, "group", "g", string(report.GroupMonth), "bucket size (day, week, month, year)")
	return cmd
}

func summaryReportCmd() *cobra.Command {
	var dates rangeFlags

	return newReportCmd("summary", "Income, expenses, net and savings rate", &dates,
		func(cmd *cobra.Command, engine *report.Engine) error {
			r, err := renderer(cmd)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(engine.Today())
			if err != nil {
				return err
			}

			s, err := engine.GetSummary(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("failed to compute summary: %w", err)
			}
			return r.Summary(s)
		})
}
