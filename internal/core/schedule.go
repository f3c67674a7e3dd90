package core

import "time"

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequency is the repetition interval of a recurring rule.
type Frequency string

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Biweekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// NextDate returns the next occurrence date after d for the given frequency.
//
// Month-based steps keep the same day of the month, clamped to the last valid
// day of the target month: Jan 31 + monthly = Feb 28 (Feb 29 in leap years).
// A clamped date stays clamped on subsequent steps; it does not recover to
// the original day. The frequency must be validated before calling.
func NextDate(d Date, f Frequency) Date {
	switch f {
	case Weekly:
		return d.AddDays(7)
	case Biweekly:
		return d.AddDays(14)
	case Monthly:
		return AddMonths(d, 1)
	case Quarterly:
		return AddMonths(d, 3)
	case Yearly:
		return AddMonths(d, 12)
	}
	return d
}

// AddMonths adds n months (n may be negative), clamping the day of month
// instead of letting the overflow spill into the following month (the
// time.AddDate behavior, where Jan 31 + 1 month = Mar 2/3).
func AddMonths(d Date, n int) Date {
	months := int(d.Month()) - 1 + n
	year := d.Year() + months/12
	rem := months % 12
	if rem < 0 {
		rem += 12
		year--
	}
	month := time.Month(rem + 1)

	day := d.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
