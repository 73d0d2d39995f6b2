package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage rules that categorize imported transactions",
		Long: `Category rules file imported transactions by description, type and amount.
When several rules match, the one with the highest priority wins.`,
	}

	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(deleteRuleCmd())

	return cmd
}

func addRuleCmd() *cobra.Command {
	var (
		pattern  string
		isRegex  bool
		txType   string
		amount   string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "add <name> <category>",
		Short: "Add a category rule",
		Example: `  # Anything mentioning Starbucks is coffee
  ledger rules add coffee Coffee --pattern starbucks

  # Small Amazon orders are shopping, checked before broader rules
  ledger rules add amazon Shopping --pattern '^amazon' --regex --amount '<100' --priority 10

  # Amounts between 1000 and 2000 from the landlord are rent
  ledger rules add rent Housing --pattern landlord --amount 1000..2000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rule := model.NewCategoryRule{
				Name:     args[0],
				Pattern:  pattern,
				IsRegex:  isRegex,
				Priority: priority,
			}
			if err := parseAmountCondition(amount, &rule); err != nil {
				return err
			}
			if txType != "" {
				typ, err := model.ParseTransactionType(txType)
				if err != nil {
					return fmt.Errorf("%w: %w", common.ErrValidation, err)
				}
				rule.Type = &typ
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cat, err := resolveCategory(ctx, store, args[1])
			if err != nil {
				return err
			}
			rule.CategoryID = cat.ID

			created, err := store.CreateRule(ctx, rule)
			if err != nil {
				return fmt.Errorf("failed to add rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added rule %d: %s files under %s",
				created.ID, created.Name, cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "text the description must contain (empty matches all)")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "treat --pattern as a regular expression")
	cmd.Flags().StringVarP(&txType, "type", "t", "", "only transactions of this type (default the category type)")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount test: <N, <=N, =N, >=N, >N or MIN..MAX")
	cmd.Flags().IntVar(&priority, "priority", 0, "higher priorities are tried first")

	return cmd
}

// parseAmountCondition fills the amount fields of rule from expressions such
// as "<50", ">=10" or "5..20". Either side of a range may be left open.
func parseAmountCondition(expr string, rule *model.NewCategoryRule) error {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "any" {
		rule.AmountCondition = model.AmountAny
		return nil
	}

	if lo, hi, ok := strings.Cut(expr, ".."); ok {
		rule.AmountCondition = model.AmountRange
		if lo = strings.TrimSpace(lo); lo != "" {
			d, err := parseAmount(lo)
			if err != nil {
				return err
			}
			rule.AmountMin = &d
		}
		if hi = strings.TrimSpace(hi); hi != "" {
			d, err := parseAmount(hi)
			if err != nil {
				return err
			}
			rule.AmountMax = &d
		}
		return nil
	}

	ops := []struct {
		prefix string
		cond   model.AmountCondition
	}{
		{"<=", model.AmountLessEqual},
		{">=", model.AmountGreaterEqual},
		{"<", model.AmountLessThan},
		{">", model.AmountGreaterThan},
		{"=", model.AmountEqual},
	}
	for _, op := range ops {
		rest, ok := strings.CutPrefix(expr, op.prefix)
		if !ok {
			continue
		}
		d, err := parseAmount(rest)
		if err != nil {
			return err
		}
		rule.AmountCondition = op.cond
		rule.AmountValue = &d
		return nil
	}

	return fmt.Errorf("%w: invalid amount test %q", common.ErrValidation, expr)
}

func listRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List category rules in the order they are tried",
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

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			categories, err := store.GetCategories(ctx, service.CategoryFilter{})
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			return r.Rules(rules, categoryNames(categories))
		},
	}

	addFormatFlag(cmd)
	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category rule",
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

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule %d: %w", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}
