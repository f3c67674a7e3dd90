// Package core holds the domain model of the finance tracker: calendar
// dates, money amounts, transactions and recurring rules.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount in integer cents. Amounts are stored positive;
// direction (income vs expense) is carried by the transaction type.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal amount string to Money, rounding half-up on
// the third decimal place. The sign of the input is returned separately so
// callers can check it against the declared transaction type.
func ParseAmount(s string) (m Money, negative bool, err error) {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, false, ErrInvalidAmount
	}
	negative = dec.IsNegative()
	cents := dec.Abs().Mul(decimal.New(100, 0)).Round(0).IntPart()
	if cents == 0 {
		return Money{}, negative, ErrInvalidAmount
	}
	return Money{Cents: cents}, negative, nil
}

// Decimal returns the amount in major units as a decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in major units for JSON display. Calculations
// stay in cents.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// SignedFloat returns the amount in major units, negated for expenses.
func (m Money) SignedFloat(t TransactionType) float64 {
	if t == Expense {
		return m.Decimal().Neg().InexactFloat64()
	}
	return m.Decimal().InexactFloat64()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
