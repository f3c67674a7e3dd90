package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in        string
		wantCents int64
		wantNeg   bool
		wantErr   bool
	}{
		{"12.34", 1234, false, false},
		{"12.345", 1235, false, false}, // half-up on third decimal
		{"12.344", 1234, false, false},
		{"1200", 120000, false, false},
		{"-85.50", 8550, true, false},
		{"-15.99", 1599, true, false},
		{"0", 0, false, true},
		{"0.00", 0, false, true},
		{"abc", 0, false, true},
		{"", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, neg, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if m.Cents != tt.wantCents {
				t.Errorf("ParseAmount(%q) cents = %d, want %d", tt.in, m.Cents, tt.wantCents)
			}
			if neg != tt.wantNeg {
				t.Errorf("ParseAmount(%q) negative = %v, want %v", tt.in, neg, tt.wantNeg)
			}
		})
	}
}

func TestMoneySignedFloat(t *testing.T) {
	m := Money{Cents: 8550}
	if got := m.SignedFloat(Expense); got != -85.5 {
		t.Errorf("SignedFloat(Expense) = %v, want -85.5", got)
	}
	if got := m.SignedFloat(Income); got != 85.5 {
		t.Errorf("SignedFloat(Income) = %v, want 85.5", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive amount should validate, got %v", err)
	}
	if err := (Money{}).Validate(); err == nil {
		t.Error("zero amount should not validate")
	}
}
