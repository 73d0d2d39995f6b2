package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
)

const ruleColumns = `id, name, pattern, is_regex, type, amount_condition,
	amount_value, amount_min, amount_max, category_id, priority, use_count, created_at`

// CreateRule stores a category rule. A rule without a type takes its
// category's type, and a rule whose type disagrees with its category is rejected.
func (l ledger) CreateRule(ctx context.Context, rule model.NewCategoryRule) (*model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewRule(rule); err != nil {
		return nil, err
	}
	if rule.AmountCondition == "" {
		rule.AmountCondition = model.AmountAny
	}

	var created *model.CategoryRule
	err := l.q.inTx(ctx, func(q queryable) error {
		cat, err := getCategoryByID(ctx, q, rule.CategoryID)
		if err != nil {
			return err
		}
		if rule.Type == nil {
			typ := cat.Type
			rule.Type = &typ
		} else if *rule.Type != cat.Type {
			return fmt.Errorf("%w: category %q holds %s transactions, not %s",
				ErrInvalidRule, cat.Name, cat.Type, *rule.Type)
		}

		result, err := q.ExecContext(ctx, `
			INSERT INTO category_rules (name, pattern, is_regex, type, amount_condition,
				amount_value, amount_min, amount_max, category_id, priority)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rule.Name, rule.Pattern, rule.IsRegex, string(*rule.Type), string(rule.AmountCondition),
			nullableDecimal(rule.AmountValue), nullableDecimal(rule.AmountMin), nullableDecimal(rule.AmountMax),
			rule.CategoryID, rule.Priority)
		if err != nil {
			return fmt.Errorf("failed to create rule: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get rule id: %w", err)
		}
		created, err = getRuleByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created rule", "id", created.ID, "name", created.Name, "category_id", created.CategoryID)
	return created, nil
}

// GetRules returns every rule, highest priority first.
func (l ledger) GetRules(ctx context.Context) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := l.q.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM category_rules
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// DeleteRule removes a rule.
func (l ledger) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	result, err := l.q.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted rule", "id", id)
	return nil
}

// IncrementRuleUseCount adds n to a rule's use count.
func (l ledger) IncrementRuleUseCount(ctx context.Context, id int64, n int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}

	result, err := l.q.ExecContext(ctx,
		`UPDATE category_rules SET use_count = use_count + ? WHERE id = ?`, n, id)
	if err != nil {
		return fmt.Errorf("failed to update rule use count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func getRuleByID(ctx context.Context, q queryable, id int64) (*model.CategoryRule, error) {
	row := q.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM category_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return rule, err
}

func scanRule(row rowScanner) (*model.CategoryRule, error) {
	var (
		rule          model.CategoryRule
		ruleType      sql.NullString
		condition     string
		value, lo, hi decimal.NullDecimal
	)
	err := row.Scan(&rule.ID, &rule.Name, &rule.Pattern, &rule.IsRegex, &ruleType, &condition,
		&value, &lo, &hi, &rule.CategoryID, &rule.Priority, &rule.UseCount, &rule.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule.AmountCondition = model.AmountCondition(condition)
	if ruleType.Valid {
		typ := model.TransactionType(ruleType.String)
		rule.Type = &typ
	}
	rule.AmountValue = decimalPtr(value)
	rule.AmountMin = decimalPtr(lo)
	rule.AmountMax = decimalPtr(hi)
	return &rule, nil
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullableDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
