package storage

import (
	"context"
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// SpendingByCategory sums absolute expense amounts per category since the
// given date, largest first.
func (r *SQLiteRepository) SpendingByCategory(ctx context.Context, since core.Date) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total_cents
		FROM transactions
		WHERE type = 'expense' AND date >= ?
		GROUP BY category
		ORDER BY total_cents DESC`,
		since.String())
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	return out, nil
}

// Overview sums income and expenses since the given date.
func (r *SQLiteRepository) Overview(ctx context.Context, since core.Date) (core.Overview, error) {
	var ov core.Overview
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ?`,
		since.String()).Scan(&ov.Income.Cents, &ov.Expenses.Cents)
	if err != nil {
		return core.Overview{}, fmt.Errorf("ledger overview: %w", err)
	}
	ov.SavingsCents = ov.Income.Cents - ov.Expenses.Cents
	return ov, nil
}

// defaultCategories seeds the category list for fresh databases.
var defaultCategories = []string{
	"Groceries", "Housing", "Transportation", "Dining Out", "Entertainment",
	"Utilities", "Healthcare", "Shopping", "Other", "Salary", "Freelance",
	"Investment Returns",
}

// Categories returns every category used by transactions or recurring rules,
// merged with the defaults, sorted alphabetically.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM transactions
		UNION
		SELECT DISTINCT category FROM recurring_transactions`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		seen[c] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	for _, c := range defaultCategories {
		seen[c] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
