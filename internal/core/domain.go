package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// TransactionType is the direction of a transaction. It is authoritative:
// stored amounts are always positive and the type decides the sign.
type TransactionType string

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrAmountTypeConflict = errors.New("amount sign conflicts with transaction type")
	ErrEndBeforeStart     = errors.New("end date before start date")
)

// Transaction is a single ledger entry, either entered manually or
// materialized from a recurring rule.
type Transaction struct {
	ID          int64
	Date        Date
	Description string
	Amount      Money
	Type        TransactionType
	Category    string
	Notes       string

	// RecurringID references the rule that produced this transaction.
	// Zero for manually entered transactions. The reference is non-owning:
	// deleting a rule keeps its materialized transactions.
	RecurringID int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// RecurringRule is a template that produces ledger transactions on a
// schedule. NextOccurrence is the cursor: the next date the rule is due.
// It always lies on the lattice obtained by stepping StartDate forward by
// the frequency; only rule creation and the materializer move it.
type RecurringRule struct {
	ID          int64
	Description string
	Amount      Money
	Type        TransactionType
	Category    string
	Notes       string
	Frequency   Frequency
	StartDate   Date

	// EndDate is optional; the rule produces no occurrence strictly after
	// it. Zero means open-ended.
	EndDate Date

	NextOccurrence Date
	IsActive       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r RecurringRule) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return ErrEndBeforeStart
	}
	if r.NextOccurrence.IsZero() || r.NextOccurrence.Before(r.StartDate) {
		return errors.New("next occurrence before start date")
	}
	return nil
}

// BudgetGoal is a snapshot of monthly budget targets. The most recently
// created row is the current one.
type BudgetGoal struct {
	ID                  int64
	MonthlyIncome       Money
	DebtPayments        Money
	Savings             Money
	Investments         Money
	Discretionary       Money
	CreatedAt, UpdatedAt time.Time
}

// Account is a named balance bucket (savings, retirement, ...).
type Account struct {
	ID                  int64
	Name                string
	Type                string
	Balance             Money
	MonthlyContribution Money
	CreatedAt, UpdatedAt time.Time
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	if strings.TrimSpace(a.Type) == "" {
		return errors.New("empty account type")
	}
	return nil
}

// CategoryAmount is one row of the spending-by-category breakdown.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// Overview aggregates the current month's ledger activity. SavingsCents is
// income minus expenses and may be negative, so it is kept as raw cents
// rather than Money.
type Overview struct {
	Income       Money
	Expenses     Money
	SavingsCents int64
}
