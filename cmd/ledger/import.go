package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledger/internal/cli"
	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/ofx"
	"github.com/Veraticus/ledger/internal/pattern"
	"github.com/Veraticus/ledger/internal/service"
	"github.com/Veraticus/ledger/internal/storage"
)

const importBatchSize = 100

type importOptions struct {
	incomeCategory  string
	expenseCategory string
	dryRun          bool
	noSnapshot      bool
	noRules         bool
}

func importCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX statements exported by your bank.

Withdrawals become expenses, deposits income and transfers stay transfers.
Transactions already imported from the same account are skipped, so
overlapping statements can be imported safely.

Category rules (see "ledger rules") file matching transactions first; the
--income-category and --expense-category defaults cover whatever is left.`,
		Example: `  # Import a single statement
  ledger import ~/Downloads/checking_2024_03.qfx

  # Import several statements and file them under default categories
  ledger import ~/Downloads/*.ofx --income-category "Other Income" --expense-category "Other Expenses"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.incomeCategory, "income-category", "", "category for imported income (id or name)")
	cmd.Flags().StringVar(&opts.expenseCategory, "expense-category", "", "category for imported expenses (id or name)")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "parse and report without saving")
	cmd.Flags().BoolVar(&opts.noSnapshot, "no-snapshot", false, "skip the automatic snapshot taken before importing")
	cmd.Flags().BoolVar(&opts.noRules, "no-rules", false, "do not apply category rules")

	return cmd
}

func runImport(cmd *cobra.Command, patterns []string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandFiles(patterns)
	if err != nil {
		return err
	}

	parser := ofx.NewParser()
	var txns []model.NewTransaction
	for _, path := range files {
		stmt, err := parseStatement(ctx, parser, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s: %d transactions (%d zero-amount lines skipped)",
			filepath.Base(path), len(stmt.Transactions), stmt.Skipped)))
		txns = append(txns, stmt.Transactions...)
	}

	if len(txns) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found"))
		return nil
	}
	if opts.dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be offered to the ledger", len(txns))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var ruleUse map[int64]int
	if !opts.noRules {
		if ruleUse, err = applyRules(ctx, store, txns); err != nil {
			return err
		}
	}
	if err := assignDefaultCategories(ctx, store, txns, opts); err != nil {
		return err
	}

	if !opts.noSnapshot {
		snapshotBeforeImport(ctx, store)
	}

	inserted, err := importInBatches(ctx, store, txns, cli.NewProgressBar(cmd.ErrOrStderr(), len(txns), "Importing"))
	if err != nil {
		return fmt.Errorf("import stopped after %d new transactions: %w", inserted, err)
	}

	recordRuleUse(ctx, store, ruleUse)

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions, skipped %d already in the ledger",
		inserted, len(txns)-inserted)))
	return nil
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err != nil {
			return nil, common.NewUserError(fmt.Sprintf("no file matches %s", pattern), err)
		}
		files = append(files, pattern)
	}
	return files, nil
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stmt, err := parser.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return stmt, nil
}

// applyRules categorizes txns with the stored category rules and reports how
// often each rule fired.
func applyRules(ctx context.Context, store *storage.SQLiteStorage, txns []model.NewTransaction) (map[int64]int, error) {
	rules, err := store.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	categories, err := store.GetCategories(ctx, service.CategoryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	applier := pattern.NewApplier(pattern.NewMatcher(rules), pattern.NewValidator(), categories)
	used, err := applier.Apply(ctx, txns)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range used {
		total += n
	}
	slog.Info("applied category rules", "rules", len(rules), "categorized", total)
	return used, nil
}

// recordRuleUse bumps rule use counts; a failed update only costs statistics.
func recordRuleUse(ctx context.Context, store *storage.SQLiteStorage, used map[int64]int) {
	for id, n := range used {
		if err := store.IncrementRuleUseCount(ctx, id, n); err != nil {
			slog.Warn("failed to record rule use", "rule_id", id, "error", err)
		}
	}
}

func assignDefaultCategories(ctx context.Context, store *storage.SQLiteStorage, txns []model.NewTransaction, opts importOptions) error {
	defaults := make(map[model.TransactionType]int64)
	for typ, ref := range map[model.TransactionType]string{
		model.TypeIncome:  opts.incomeCategory,
		model.TypeExpense: opts.expenseCategory,
	} {
		if ref == "" {
			continue
		}
		cat, err := resolveCategory(ctx, store, ref)
		if err != nil {
			return err
		}
		defaults[typ] = cat.ID
	}

	for i := range txns {
		if id, ok := defaults[txns[i].Type]; ok && txns[i].CategoryID == nil {
			txns[i].CategoryID = &id
		}
	}
	return nil
}

// snapshotBeforeImport takes an automatic snapshot; failing to take one is not fatal.
func snapshotBeforeImport(ctx context.Context, store *storage.SQLiteStorage) {
	manager, err := store.NewSnapshotManager()
	if errors.Is(err, storage.ErrInMemoryDatabase) {
		return
	}
	if err == nil {
		_, err = manager.Auto(ctx, "import")
	}
	if err != nil {
		slog.Warn("continuing import without a snapshot", "error", err)
	}
}

// progress is the slice of a progress bar the importer drives.
type progress interface {
	Add(n int) error
}

func importInBatches(ctx context.Context, store *storage.SQLiteStorage, txns []model.NewTransaction, bar progress) (int, error) {
	inserted := 0
	for start := 0; start < len(txns); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		end := min(start+importBatchSize, len(txns))
		n, err := store.ImportTransactions(ctx, txns[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
		if err := bar.Add(end - start); err != nil {
			slog.Debug("failed to update progress bar", "error", err)
		}
	}
	return inserted, nil
}
