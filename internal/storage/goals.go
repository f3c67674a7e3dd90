package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

func scanBudgetGoal(row interface{ Scan(...any) error }) (core.BudgetGoal, error) {
	var (
		g         core.BudgetGoal
		createdAt string
		updatedAt string
	)
	err := row.Scan(&g.ID, &g.MonthlyIncome.Cents, &g.DebtPayments.Cents,
		&g.Savings.Cents, &g.Investments.Cents, &g.Discretionary.Cents,
		&createdAt, &updatedAt)
	if err != nil {
		return core.BudgetGoal{}, err
	}
	g.CreatedAt = scanTime(createdAt)
	g.UpdatedAt = scanTime(updatedAt)
	return g, nil
}

// LatestBudgetGoal returns the most recently created goal snapshot.
func (r *SQLiteRepository) LatestBudgetGoal(ctx context.Context) (core.BudgetGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, monthly_income_cents, debt_payments_cents, savings_cents,
		       investments_cents, discretionary_cents, created_at, updated_at
		FROM budget_goals
		ORDER BY id DESC
		LIMIT 1`)
	g, err := scanBudgetGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetGoal{}, fmt.Errorf("budget goals: %w", ErrNotFound)
	}
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("latest budget goals: %w", err)
	}
	return g, nil
}

// InsertBudgetGoal records a new goal snapshot and returns it with
// database-assigned fields filled in.
func (r *SQLiteRepository) InsertBudgetGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_goals
			(monthly_income_cents, debt_payments_cents, savings_cents,
			 investments_cents, discretionary_cents)
		VALUES (?, ?, ?, ?, ?)`,
		g.MonthlyIncome.Cents, g.DebtPayments.Cents, g.Savings.Cents,
		g.Investments.Cents, g.Discretionary.Cents)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("insert budget goals: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("budget goals insert id: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, monthly_income_cents, debt_payments_cents, savings_cents,
		       investments_cents, discretionary_cents, created_at, updated_at
		FROM budget_goals WHERE id = ?`, id)
	created, err := scanBudgetGoal(row)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("read back budget goals %d: %w", id, err)
	}
	return created, nil
}

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a         core.Account
		createdAt string
		updatedAt string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents,
		&a.MonthlyContribution.Cents, &createdAt, &updatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.CreatedAt = scanTime(createdAt)
	a.UpdatedAt = scanTime(updatedAt)
	return a, nil
}

// ListAccounts returns all accounts ordered by name.
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, balance_cents, monthly_contribution_cents,
		       created_at, updated_at
		FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, type, balance_cents, monthly_contribution_cents)
		VALUES (?, ?, ?, ?)`,
		a.Name, a.Type, a.Balance.Cents, a.MonthlyContribution.Cents)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, balance_cents, monthly_contribution_cents,
		       created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	created, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("read back account %d: %w", id, err)
	}
	return created, nil
}
