package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

const ruleColumns = `id, description, amount_cents, type, category, notes, frequency,
	start_date, end_date, next_occurrence, is_active, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (core.RecurringRule, error) {
	var (
		rule      core.RecurringRule
		startDate sql.NullString
		endDate   sql.NullString
		nextOcc   sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&rule.ID, &rule.Description, &rule.Amount.Cents, &rule.Type,
		&rule.Category, &rule.Notes, &rule.Frequency, &startDate, &endDate,
		&nextOcc, &rule.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return core.RecurringRule{}, err
	}
	if rule.StartDate, err = scanDate(startDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan start_date: %w", err)
	}
	if rule.EndDate, err = scanDate(endDate); err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan end_date: %w", err)
	}
	if rule.NextOccurrence, err = scanDate(nextOcc); err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan next_occurrence: %w", err)
	}
	rule.CreatedAt = scanTime(createdAt)
	rule.UpdatedAt = scanTime(updatedAt)
	return rule, nil
}

func (r *SQLiteRepository) InsertRule(ctx context.Context, rule core.RecurringRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions
			(description, amount_cents, type, category, notes, frequency,
			 start_date, end_date, next_occurrence, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Description, rule.Amount.Cents, string(rule.Type), rule.Category,
		rule.Notes, string(rule.Frequency), rule.StartDate.String(),
		nullDate(rule.EndDate), rule.NextOccurrence.String(), rule.IsActive)
	if err != nil {
		return 0, fmt.Errorf("insert recurring rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring rule insert id: %w", err)
	}

	slog.DebugContext(ctx, "Recurring rule saved",
		"id", id,
		"frequency", string(rule.Frequency),
		"next_occurrence", rule.NextOccurrence.String())

	return id, nil
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id int64) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_transactions WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, fmt.Errorf("recurring rule %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("get recurring rule %d: %w", id, err)
	}
	return rule, nil
}

// ListRules returns all rules ordered by their next occurrence.
func (r *SQLiteRepository) ListRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM recurring_transactions ORDER BY next_occurrence, id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring rule: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	return out, nil
}

// ListDueRules selects the rules the materializer must process: active, with
// a cursor at or before today, and not past their end date.
func (r *SQLiteRepository) ListDueRules(ctx context.Context, today core.Date) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM recurring_transactions
		WHERE is_active = 1 AND next_occurrence <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`,
		today.String(), today.String())
	if err != nil {
		return nil, fmt.Errorf("list due rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due rule: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due rules: %w", err)
	}
	return out, nil
}

// UpdateRuleCursor advances a rule's next_occurrence. Only the materializer
// and rule updates that change the schedule call this.
func (r *SQLiteRepository) UpdateRuleCursor(ctx context.Context, id int64, next core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET next_occurrence = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		next.String(), id)
	if err != nil {
		return fmt.Errorf("update rule cursor %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule cursor %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring rule %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET description = ?, amount_cents = ?, type = ?, category = ?, notes = ?,
		    frequency = ?, start_date = ?, end_date = ?, next_occurrence = ?,
		    is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rule.Description, rule.Amount.Cents, string(rule.Type), rule.Category,
		rule.Notes, string(rule.Frequency), rule.StartDate.String(),
		nullDate(rule.EndDate), rule.NextOccurrence.String(), rule.IsActive, rule.ID)
	if err != nil {
		return fmt.Errorf("update recurring rule %d: %w", rule.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recurring rule %d: %w", rule.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring rule %d: %w", rule.ID, ErrNotFound)
	}
	return nil
}

// DeleteRule removes a rule. Materialized transactions keep their
// recurring_id back-reference; it simply dangles from then on.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring rule %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring rule %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring rule %d: %w", id, ErrNotFound)
	}
	return nil
}
