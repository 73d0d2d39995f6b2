package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

const budgetColumns = `id, category_id, amount, month, year`

// SetBudget creates the budget for (category, month, year) or overwrites its
// amount when one already exists. The write is a single upsert.
func (l ledger) SetBudget(ctx context.Context, budget model.BudgetInput) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBudgetInput(budget); err != nil {
		return nil, err
	}

	var saved *model.Budget
	err := l.q.inTx(ctx, func(q queryable) error {
		if _, err := getCategoryByID(ctx, q, budget.CategoryID); err != nil {
			return err
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO budgets (category_id, amount, month, year)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (category_id, month, year) DO UPDATE SET amount = excluded.amount`,
			budget.CategoryID, budget.Amount.String(), budget.Month, budget.Year)
		if err != nil {
			return fmt.Errorf("failed to save budget: %w", err)
		}

		row := q.QueryRowContext(ctx, `
			SELECT `+budgetColumns+` FROM budgets
			WHERE category_id = ? AND month = ? AND year = ?`,
			budget.CategoryID, budget.Month, budget.Year)
		saved, err = scanBudget(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("set budget",
		"id", saved.ID,
		"category_id", saved.CategoryID,
		"period", fmt.Sprintf("%04d-%02d", saved.Year, saved.Month),
		"amount", saved.Amount.String())
	return saved, nil
}

// GetBudgets returns budgets matching filter ordered by id.
func (l ledger) GetBudgets(ctx context.Context, filter service.BudgetFilter) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	if filter.CategoryID != 0 {
		conditions = append(conditions, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Month != 0 {
		conditions = append(conditions, "month = ?")
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, filter.Year)
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	slog.Debug("retrieved budgets", "count", len(budgets))
	return budgets, nil
}

// DeleteBudget removes a budget.
func (l ledger) DeleteBudget(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	err := l.q.inTx(ctx, func(q queryable) error {
		result, err := q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete budget: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("budget %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("deleted budget", "id", id)
	return nil
}

func scanBudget(row rowScanner) (*model.Budget, error) {
	var b model.Budget
	if err := row.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.Month, &b.Year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("budget: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}
	return &b, nil
}
