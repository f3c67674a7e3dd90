package core

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-08-01", "2025-08-01", false},
		{"2025-8-1", "2025-08-01", false}, // permissive read format
		{"2024-02-29", "2024-02-29", false},
		{"not-a-date", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && d.String() != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestDateOrdering(t *testing.T) {
	a := MustParseDate("2025-07-01")
	b := MustParseDate("2025-07-02")
	if !a.Before(b) || b.Before(a) {
		t.Errorf("expected %s before %s", a, b)
	}
	if !b.After(a) {
		t.Errorf("expected %s after %s", b, a)
	}
	if a.Before(a) || a.After(a) {
		t.Error("a date is neither before nor after itself")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date Date `json:"date"`
	}
	in := payload{Date: MustParseDate("2025-08-15")}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"date":"2025-08-15"}` {
		t.Errorf("marshal = %s", b)
	}
	var out payload
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Date != in.Date {
		t.Errorf("round trip = %s, want %s", out.Date, in.Date)
	}
}

func TestDateZero(t *testing.T) {
	var d Date
	if !d.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if MustParseDate("2025-01-01").IsZero() {
		t.Error("parsed date should not report IsZero")
	}
}
