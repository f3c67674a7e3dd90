package core

import (
	"errors"
	"testing"
)

func validRule() RecurringRule {
	start := MustParseDate("2025-08-01")
	return RecurringRule{
		Description:    "Rent",
		Amount:         Money{Cents: 120000},
		Type:           Expense,
		Category:       "Housing",
		Frequency:      Monthly,
		StartDate:      start,
		NextOccurrence: start,
		IsActive:       true,
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecurringRule)
		wantErr error
	}{
		{"valid rule", func(r *RecurringRule) {}, nil},
		{"empty description", func(r *RecurringRule) { r.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(r *RecurringRule) { r.Amount = Money{} }, ErrInvalidAmount},
		{"bad type", func(r *RecurringRule) { r.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(r *RecurringRule) { r.Category = "" }, ErrEmptyCategory},
		{"bad frequency", func(r *RecurringRule) { r.Frequency = "daily" }, ErrInvalidFrequency},
		{"zero start date", func(r *RecurringRule) { r.StartDate = Date{} }, ErrInvalidDate},
		{"end before start", func(r *RecurringRule) { r.EndDate = MustParseDate("2025-07-01") }, ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        MustParseDate("2025-08-01"),
		Description: "Grocery Store",
		Amount:      Money{Cents: 8550},
		Type:        Expense,
		Category:    "Groceries",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction: %v", err)
	}

	tx := valid
	tx.Date = Date{}
	if !errors.Is(tx.Validate(), ErrInvalidDate) {
		t.Error("zero date should fail")
	}

	tx = valid
	tx.Type = "withdrawal"
	if !errors.Is(tx.Validate(), ErrInvalidType) {
		t.Error("unknown type should fail")
	}

	tx = valid
	tx.Category = " "
	if !errors.Is(tx.Validate(), ErrEmptyCategory) {
		t.Error("blank category should fail")
	}
}

func TestRuleCursorOnLattice(t *testing.T) {
	r := validRule()
	r.NextOccurrence = MustParseDate("2025-07-15")
	if r.Validate() == nil {
		t.Error("cursor before start date should fail validation")
	}
}
