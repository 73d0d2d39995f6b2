package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/report"
	"github.com/Veraticus/ledger/internal/service"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budget",
		Aliases: []string{"budgets"},
		Short:   "Set monthly budgets and track spending against them",
	}

	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(deleteBudgetCmd())
	cmd.AddCommand(budgetStatusCmd())

	return cmd
}

// monthFlag resolves --month relative to the current month.
func monthFlag(value string, today time.Time) (int, int, error) {
	if value == "" {
		return int(today.Month()), today.Year(), nil
	}
	return parseMonth(value, today.Year())
}

func setBudgetCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Set the budget of a category for a month",
		Long:  `Set the budget of a category for one month. Setting it again replaces the amount.`,
		Example: `  ledger budget set Food 400
  ledger budget set Housing 1500 --month 2024-07`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			m, y, err := monthFlag(month, time.Now())
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}

			b, err := store.SetBudget(ctx, model.BudgetInput{CategoryID: cat.ID, Amount: amount, Month: m, Year: y})
			if err != nil {
				return fmt.Errorf("failed to set budget: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget for %s in %s is %s",
				cat.Name, b.Period().Format("January 2006"), cli.FormatMoney(b.Amount))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM or 1-12 (default current month)")

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	var (
		month    string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, err := renderer(cmd)
			if err != nil {
				return err
			}

			var filter service.BudgetFilter
			if month != "" {
				if filter.Month, filter.Year, err = parseMonth(month, time.Now().Year()); err != nil {
					return err
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if category != "" {
				cat, err := resolveCategory(ctx, store, category)
				if err != nil {
					return err
				}
				filter.CategoryID = cat.ID
			}

			budgets, err := store.GetBudgets(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}
			categories, err := store.GetCategories(ctx, service.CategoryFilter{})
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			return r.Budgets(budgets, categoryNames(categories))
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "only this month (YYYY-MM or 1-12)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (id or name)")
	addFormatFlag(cmd)

	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteBudget(ctx, id); err != nil {
				return fmt.Errorf("failed to delete budget %d: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted budget %d", id)))
			return nil
		},
	}
}

func budgetStatusCmd() *cobra.Command {
	var (
		month  string
		byUsed bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare a month's budgets with actual spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, err := renderer(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := report.NewEngine(store)
			m, y, err := monthFlag(month, engine.Today())
			if err != nil {
				return err
			}

			rows, err := engine.GetBudgetStatus(ctx, m, y)
			if err != nil {
				return fmt.Errorf("failed to compute budget status: %w", err)
			}
			if byUsed {
				report.SortByPercentage(rows)
			}

			return r.BudgetStatus(rows)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM or 1-12 (default current month)")
	cmd.Flags().BoolVar(&byUsed, "by-used", false, "sort by share of budget used, highest first")
	addFormatFlag(cmd)

	return cmd
}
