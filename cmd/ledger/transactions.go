package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions", "transaction"},
		Short:   "Record and manage transactions",
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		typeName    string
		date        string
		category    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction",
		Example: `  ledger tx add 42.50 --category Food --desc "Groceries"
  ledger tx add 3000 --type income --category Salary --date 2024-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			typ, err := model.ParseTransactionType(typeName)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			when := model.Day(time.Now())
			if date != "" {
				if when, err = model.ParseDate(date); err != nil {
					return err
				}
			}

			txn := model.NewTransaction{
				Amount:      amount,
				Type:        typ,
				Date:        when,
				Description: description,
			}
			if category != "" {
				cat, err := resolveCategory(ctx, store, category)
				if err != nil {
					return err
				}
				txn.CategoryID = &cat.ID
			}

			saved, err := store.AddTransaction(ctx, txn)
			if err != nil {
				return fmt.Errorf("failed to add transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s of %s on %s (id %d)",
				saved.Type, cli.FormatMoney(saved.Amount), saved.Date.Format(model.DateLayout), saved.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", string(model.TypeExpense), "transaction type (income, expense, transfer)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "transaction date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id or name")
	cmd.Flags().StringVar(&description, "desc", "", "description")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		dates    rangeFlags
		typeName string
		category string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, err := renderer(cmd)
			if err != nil {
				return err
			}
			start, end, err := dates.resolve(model.Day(time.Now()))
			if err != nil {
				return err
			}

			filter := service.TransactionFilter{StartDate: start, EndDate: end, Limit: limit, Offset: offset}
			if typeName != "" {
				typ, err := model.ParseTransactionType(typeName)
				if err != nil {
					return err
				}
				filter.Type = &typ
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
				filter.CategoryID = &cat.ID
			}

			txns, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			categories, err := store.GetCategories(ctx, service.CategoryFilter{})
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			return r.Transactions(txns, categoryNames(categories))
		},
	}

	dates.register(cmd)
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "only this type (income, expense, transfer)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (id or name)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	addFormatFlag(cmd)

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		amount        string
		typeName      string
		date          string
		category      string
		description   string
		clearCategory bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Long:  `Change any subset of a transaction's fields. Fields whose flags are not given keep their values.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var update model.TransactionUpdate
			flags := cmd.Flags()
			if flags.Changed("amount") {
				a, err := parseAmount(amount)
				if err != nil {
					return err
				}
				update.Amount = &a
			}
			if flags.Changed("type") {
				typ, err := model.ParseTransactionType(typeName)
				if err != nil {
					return err
				}
				update.Type = &typ
			}
			if flags.Changed("date") {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				update.Date = &d
			}
			if flags.Changed("desc") {
				update.Description = &description
			}
			if clearCategory && category != "" {
				return fmt.Errorf("--category and --clear-category are mutually exclusive")
			}
			update.ClearCategory = clearCategory

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
				update.CategoryID = &cat.ID
			}

			if err := store.UpdateTransaction(ctx, id, update); err != nil {
				return fmt.Errorf("failed to update transaction %d: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "new type (income, expense, transfer)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "new date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category id or name")
	cmd.Flags().BoolVar(&clearCategory, "clear-category", false, "remove the category")
	cmd.Flags().StringVar(&description, "desc", "", "new description")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
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

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transaction %d: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}
