package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero-valued fields are ignored.
type TransactionFilter struct {
	From     core.Date
	To       core.Date
	Category string
	Type     core.TransactionType
}

const transactionColumns = `id, date, description, amount_cents, type, category, notes, recurring_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx          core.Transaction
		date        sql.NullString
		recurringID sql.NullInt64
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&tx.ID, &date, &tx.Description, &tx.Amount.Cents, &tx.Type,
		&tx.Category, &tx.Notes, &recurringID, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Date, err = scanDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("scan date: %w", err)
	}
	tx.RecurringID = recurringID.Int64
	tx.CreatedAt = scanTime(createdAt)
	tx.UpdatedAt = scanTime(updatedAt)
	return tx, nil
}

// InsertTransaction persists a transaction and returns its id. A transaction
// carrying a recurring back-reference that collides with an existing
// (recurring_id, date) pair fails with ErrDuplicateOccurrence.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	var recurringID sql.NullInt64
	if tx.RecurringID != 0 {
		recurringID = sql.NullInt64{Int64: tx.RecurringID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, description, amount_cents, type, category, notes, recurring_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Description, tx.Amount.Cents, string(tx.Type),
		tx.Category, tx.Notes, recurringID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert transaction for rule %d on %s: %w",
				tx.RecurringID, tx.Date, ErrDuplicateOccurrence)
		}
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", id,
		"date", tx.Date.String(),
		"amount_cents", tx.Amount.Cents,
		"type", string(tx.Type))

	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any

	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, amount_cents = ?, type = ?, category = ?,
		    notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		tx.Date.String(), tx.Description, tx.Amount.Cents, string(tx.Type),
		tx.Category, tx.Notes, tx.ID)
	if err != nil {
		// Moving a materialized transaction onto another occurrence of the
		// same rule trips the (recurring_id, date) index.
		if isUniqueViolation(err) {
			return fmt.Errorf("update transaction %d: %w", tx.ID, ErrDuplicateOccurrence)
		}
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", tx.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return nil
}
