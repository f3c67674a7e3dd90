package storage

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// SeedSampleData inserts demo transactions, rules and accounts into an empty
// database. It is a no-op when any transaction already exists.
func (r *SQLiteRepository) SeedSampleData(ctx context.Context) error {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count > 0 {
		return nil
	}

	transactions := []core.Transaction{
		{Date: core.MustParseDate("2025-07-29"), Description: "Salary Deposit", Amount: core.Money{Cents: 260000}, Type: core.Income, Category: "Salary", Notes: "Bi-weekly paycheck"},
		{Date: core.MustParseDate("2025-07-28"), Description: "Grocery Store", Amount: core.Money{Cents: 8550}, Type: core.Expense, Category: "Groceries"},
		{Date: core.MustParseDate("2025-07-27"), Description: "Gas Station", Amount: core.Money{Cents: 4500}, Type: core.Expense, Category: "Transportation"},
		{Date: core.MustParseDate("2025-07-26"), Description: "Restaurant", Amount: core.Money{Cents: 6780}, Type: core.Expense, Category: "Dining Out", Notes: "Dinner with friends"},
		{Date: core.MustParseDate("2025-07-25"), Description: "Netflix Subscription", Amount: core.Money{Cents: 1599}, Type: core.Expense, Category: "Entertainment"},
		{Date: core.MustParseDate("2025-07-24"), Description: "Rent Payment", Amount: core.Money{Cents: 120000}, Type: core.Expense, Category: "Housing", Notes: "Monthly rent"},
		{Date: core.MustParseDate("2025-07-23"), Description: "Freelance Work", Amount: core.Money{Cents: 50000}, Type: core.Income, Category: "Freelance", Notes: "Web design project"},
	}
	for _, tx := range transactions {
		if _, err := r.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction %q: %w", tx.Description, err)
		}
	}

	rules := []core.RecurringRule{
		{Description: "Salary", Amount: core.Money{Cents: 260000}, Type: core.Income, Category: "Salary", Notes: "Bi-weekly paycheck", Frequency: core.Biweekly, StartDate: core.MustParseDate("2025-07-29"), NextOccurrence: core.MustParseDate("2025-08-12"), IsActive: true},
		{Description: "Rent", Amount: core.Money{Cents: 120000}, Type: core.Expense, Category: "Housing", Notes: "Monthly rent payment", Frequency: core.Monthly, StartDate: core.MustParseDate("2025-08-01"), NextOccurrence: core.MustParseDate("2025-08-01"), IsActive: true},
		{Description: "Netflix", Amount: core.Money{Cents: 1599}, Type: core.Expense, Category: "Entertainment", Notes: "Streaming subscription", Frequency: core.Monthly, StartDate: core.MustParseDate("2025-08-01"), NextOccurrence: core.MustParseDate("2025-08-01"), IsActive: true},
	}
	for _, rule := range rules {
		if _, err := r.InsertRule(ctx, rule); err != nil {
			return fmt.Errorf("seed rule %q: %w", rule.Description, err)
		}
	}

	accounts := []core.Account{
		{Name: "TFSA", Type: "Tax-Free Savings", Balance: core.Money{Cents: 1500000}, MonthlyContribution: core.Money{Cents: 50000}},
		{Name: "RRSP", Type: "Retirement Savings", Balance: core.Money{Cents: 2500000}, MonthlyContribution: core.Money{Cents: 80000}},
		{Name: "FHSA", Type: "First Home Savings", Balance: core.Money{Cents: 800000}, MonthlyContribution: core.Money{Cents: 30000}},
		{Name: "Emergency Fund", Type: "Savings", Balance: core.Money{Cents: 500000}, MonthlyContribution: core.Money{Cents: 20000}},
	}
	for _, a := range accounts {
		if _, err := r.InsertAccount(ctx, a); err != nil {
			return fmt.Errorf("seed account %q: %w", a.Name, err)
		}
	}

	slog.InfoContext(ctx, "Sample data inserted",
		"transactions", len(transactions),
		"rules", len(rules),
		"accounts", len(accounts))

	return nil
}
