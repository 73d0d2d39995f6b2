package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
	"github.com/Veraticus/ledger/internal/service"
)

const categoryColumns = `id, name, color_tag, type, created_at`

// GetCategories returns categories ordered by name, optionally restricted to one type.
func (l ledger) GetCategories(ctx context.Context, filter service.CategoryFilter) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if filter.Type != nil {
		query += ` WHERE type = ?`
		args = append(args, string(*filter.Type))
	}
	query += ` ORDER BY name`

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its id.
func (l ledger) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	return getCategoryByID(ctx, l.q, id)
}

func getCategoryByID(ctx context.Context, q queryable, id int64) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return cat, err
}

// GetCategoryByName returns a category by its exact name.
func (l ledger) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := l.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, strings.TrimSpace(name))
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	return cat, err
}

// CreateCategory creates a new category. Names are unique.
func (l ledger) CreateCategory(ctx context.Context, category model.NewCategory) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewCategory(category); err != nil {
		return nil, err
	}

	var created *model.Category
	err := l.q.inTx(ctx, func(q queryable) error {
		var err error
		created, err = insertCategory(ctx, q, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created category", "id", created.ID, "name", created.Name, "type", created.Type)
	return created, nil
}

func insertCategory(ctx context.Context, q queryable, category model.NewCategory) (*model.Category, error) {
	cat := model.Category{
		Name:      strings.TrimSpace(category.Name),
		ColorTag:  strings.TrimSpace(category.ColorTag),
		Type:      category.Type,
		CreatedAt: time.Now().UTC(),
	}
	if cat.ColorTag == "" {
		cat.ColorTag = model.DefaultColorTag
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO categories (name, color_tag, type, created_at)
		VALUES (?, ?, ?, ?)`,
		cat.Name, cat.ColorTag, string(cat.Type), cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", cat.Name, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	cat.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}
	return &cat, nil
}

// UpdateCategory changes the fields present in update.
func (l ledger) UpdateCategory(ctx context.Context, id int64, update model.CategoryUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if err := validateCategoryUpdate(update); err != nil {
		return err
	}

	err := l.q.inTx(ctx, func(q queryable) error {
		cat, err := getCategoryByID(ctx, q, id)
		if err != nil {
			return err
		}

		if update.Name != nil {
			cat.Name = strings.TrimSpace(*update.Name)
		}
		if update.ColorTag != nil {
			cat.ColorTag = strings.TrimSpace(*update.ColorTag)
			if cat.ColorTag == "" {
				cat.ColorTag = model.DefaultColorTag
			}
		}
		if update.Type != nil {
			cat.Type = *update.Type
		}

		_, err = q.ExecContext(ctx, `
			UPDATE categories SET name = ?, color_tag = ?, type = ?
			WHERE id = ?`,
			cat.Name, cat.ColorTag, string(cat.Type), id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("category %q: %w", cat.Name, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("updated category", "id", id)
	return nil
}

// DeleteCategory removes a category. It fails with common.ErrCategoryInUse while
// any transaction references the category; its budgets and rules go with it.
func (l ledger) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	err := l.q.inTx(ctx, func(q queryable) error {
		if _, err := getCategoryByID(ctx, q, id); err != nil {
			return err
		}

		var refs int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("failed to count category references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("category %d has %d transactions: %w", id, refs, common.ErrCategoryInUse)
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("category %d: %w", id, common.ErrCategoryInUse)
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("deleted category", "id", id)
	return nil
}

// SeedDefaultCategories creates the starter categories when none exist yet.
// It returns the number of categories created.
func (l ledger) SeedDefaultCategories(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	created := 0
	err := l.q.inTx(ctx, func(q queryable) error {
		var existing int
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&existing); err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if existing > 0 {
			return nil
		}

		for _, cat := range model.DefaultCategories() {
			if _, err := insertCategory(ctx, q, cat); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		slog.Info("seeded default categories", "count", created)
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var cat model.Category
	var txType string
	if err := row.Scan(&cat.ID, &cat.Name, &cat.ColorTag, &txType, &cat.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	cat.Type = model.TransactionType(txType)
	return &cat, nil
}
