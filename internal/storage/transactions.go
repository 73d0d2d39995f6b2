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

const transactionColumns = `id, amount, description, date, type, category_id, external_id, created_at`

// AddTransaction records a single transaction.
func (l ledger) AddTransaction(ctx context.Context, txn model.NewTransaction) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewTransaction(txn); err != nil {
		return nil, err
	}

	var created *model.Transaction
	err := l.q.inTx(ctx, func(q queryable) error {
		if txn.CategoryID != nil {
			if _, err := getCategoryByID(ctx, q, *txn.CategoryID); err != nil {
				return err
			}
		}

		record := newRecord(txn)
		result, err := q.ExecContext(ctx, `
			INSERT INTO transactions (amount, description, date, type, category_id, external_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.Amount.String(), record.Description, record.Date.Format(model.DateLayout),
			string(record.Type), nullableID(record.CategoryID), nullableString(record.ExternalID), record.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("transaction %q: %w", record.ExternalID, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		record.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get transaction ID: %w", err)
		}
		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("added transaction", "id", created.ID, "type", created.Type, "amount", created.Amount.String())
	return created, nil
}

// ImportTransactions inserts a batch atomically, skipping any whose external id
// is already stored. It returns the number of rows inserted.
func (l ledger) ImportTransactions(ctx context.Context, txns []model.NewTransaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i, txn := range txns {
		if err := validateNewTransaction(txn); err != nil {
			return 0, fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	if len(txns) == 0 {
		return 0, nil
	}

	inserted := 0
	err := l.q.inTx(ctx, func(q queryable) error {
		stmt, err := q.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (amount, description, date, type, category_id, external_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, txn := range txns {
			record := newRecord(txn)
			result, err := stmt.ExecContext(ctx,
				record.Amount.String(), record.Description, record.Date.Format(model.DateLayout),
				string(record.Type), nullableID(record.CategoryID), nullableString(record.ExternalID), record.CreatedAt)
			if err != nil {
				if isForeignKeyViolation(err) {
					return fmt.Errorf("transaction at index %d: category %d: %w", i, *record.CategoryID, common.ErrNotFound)
				}
				return fmt.Errorf("failed to insert transaction at index %d: %w", i, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("imported transactions", "received", len(txns), "inserted", inserted)
	return inserted, nil
}

// GetTransactionByID returns a transaction by its id.
func (l ledger) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, l.q, id)
}

func getTransactionByID(ctx context.Context, q queryable, id int64) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return txn, err
}

// GetTransactions returns transactions matching filter, newest first.
func (l ledger) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*filter.Type))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	case filter.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "count", len(transactions))
	return transactions, nil
}

// UpdateTransaction changes the fields present in update.
func (l ledger) UpdateTransaction(ctx context.Context, id int64, update model.TransactionUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if err := validateTransactionUpdate(update); err != nil {
		return err
	}

	err := l.q.inTx(ctx, func(q queryable) error {
		current, err := getTransactionByID(ctx, q, id)
		if err != nil {
			return err
		}

		next := update.Apply(*current)
		if update.CategoryID != nil && !update.ClearCategory {
			if _, err := getCategoryByID(ctx, q, *next.CategoryID); err != nil {
				return err
			}
		}

		_, err = q.ExecContext(ctx, `
			UPDATE transactions
			SET amount = ?, description = ?, date = ?, type = ?, category_id = ?
			WHERE id = ?`,
			next.Amount.String(), next.Description, next.Date.Format(model.DateLayout),
			string(next.Type), nullableID(next.CategoryID), id)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("updated transaction", "id", id)
	return nil
}

// DeleteTransaction removes a transaction.
func (l ledger) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	err := l.q.inTx(ctx, func(q queryable) error {
		result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

// GetTransactionCount returns the total number of transactions.
func (l ledger) GetTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := l.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func newRecord(txn model.NewTransaction) model.Transaction {
	record := model.Transaction{
		Amount:      txn.Amount,
		Description: strings.TrimSpace(txn.Description),
		Date:        model.Day(txn.Date),
		Type:        txn.Type,
		ExternalID:  strings.TrimSpace(txn.ExternalID),
		CreatedAt:   time.Now().UTC(),
	}
	if txn.CategoryID != nil {
		id := *txn.CategoryID
		record.CategoryID = &id
	}
	return record
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		date       string
		txType     string
		categoryID sql.NullInt64
		externalID sql.NullString
	)
	err := row.Scan(&txn.ID, &txn.Amount, &txn.Description, &date, &txType,
		&categoryID, &externalID, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Date, err = model.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", txn.ID, err)
	}
	txn.Type = model.TransactionType(txType)
	if categoryID.Valid {
		id := categoryID.Int64
		txn.CategoryID = &id
	}
	txn.ExternalID = externalID.String
	return &txn, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
