package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and seed default categories",
		Long: `Create the ledger database, apply migrations and add the default income and
expense categories. Seeding is skipped when any category already exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.SeedDefaultCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Ledger ready at "+store.Path()))
			if n == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Categories already exist, nothing seeded"))
			} else {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Added %d default categories", n)))
			}
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories",
		Long:    `List, add, update, and delete the income and expense categories transactions are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, err := renderer(cmd)
			if err != nil {
				return err
			}

			var filter service.CategoryFilter
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

			categories, err := store.GetCategories(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			return r.Categories(categories)
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "only list categories of this type (income, expense, transfer)")
	addFormatFlag(cmd)

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		typeName string
		color    string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			typ, err := model.ParseTransactionType(typeName)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := store.CreateCategory(ctx, model.NewCategory{
				Name:     args[0],
				Type:     typ,
				ColorTag: color,
			})
			if err != nil {
				return fmt.Errorf("failed to create category %q: %w", args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created %s category %q (id %d)", cat.Type, cat.Name, cat.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", string(model.TypeExpense), "category type (income, expense, transfer)")
	cmd.Flags().StringVarP(&color, "color", "c", "", "display color, e.g. #e74c3c (default "+model.DefaultColorTag+")")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name     string
		typeName string
		color    string
	)

	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Rename a category or change its type or color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var update model.CategoryUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("color") {
				update.ColorTag = &color
			}
			if cmd.Flags().Changed("type") {
				typ, err := model.ParseTransactionType(typeName)
				if err != nil {
					return err
				}
				update.Type = &typ
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

			if err := store.UpdateCategory(ctx, cat.ID, update); err != nil {
				return fmt.Errorf("failed to update category %q: %w", cat.Name, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated category %d", cat.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "new type (income, expense, transfer)")
	cmd.Flags().StringVarP(&color, "color", "c", "", "new display color")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a category",
		Long: `Delete a category and its budgets. A category that transactions still
refer to cannot be deleted; recategorize or delete those transactions first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}

			if err := store.DeleteCategory(ctx, cat.ID); err != nil {
				return fmt.Errorf("failed to delete category %q: %w", cat.Name, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted category %q", cat.Name)))
			return nil
		},
	}
}
