/*
date.go - Local calendar dates and semi-monthly pay cycles

PURPOSE:
  A worked overtime entry is dated by a pure (year, month, day) triple.
  There is no clock time and no timezone: "2024-02-10" means the same
  calendar day everywhere, and must never shift by being routed through
  UTC conversion.

PAY CYCLES:
  Pay runs on a semi-monthly cycle identified by a "YYYY-MM" key. The
  cycle keyed by a month covers the 16th of the PREVIOUS month through
  the 15th of that month, inclusive on both ends.

  Membership rule: a date with day-of-month > 15 belongs to the cycle
  keyed by the NEXT month (December 16 rolls into January of the next
  year); otherwise it belongs to the cycle keyed by its own month.

  Examples:
    2024-02-10 -> cycle 2024-02  (range 2024-01-16 .. 2024-02-15)
    2024-02-16 -> cycle 2024-03  (range 2024-02-16 .. 2024-03-15)
    2024-12-20 -> cycle 2025-01

ROUND-TRIP GUARANTEE:
  ParseDate(d.String()) == d for every valid calendar date. The string
  form is zero-padded "YYYY-MM-DD".

SEE ALSO:
  - settings.go: Salary/welfare resolution keyed by CycleKey
  - stats.go: Cycle aggregation over the date range
*/
package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - A pure (year, month, day) triple
// =============================================================================

// Date is a calendar date with no time component and no timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date. Out-of-range components are normalized the way
// time.Date normalizes them (e.g. January 32 becomes February 1).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current date in local time.
func Today() Date {
	now := time.Now()
	return Date{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

// ParseDate parses a zero-padded "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String formats the date as zero-padded "YYYY-MM-DD".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Comparison. Dates are plain triples, so lexicographic component order works.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) Equal(other Date) bool         { return d == other }
func (d Date) After(other Date) bool         { return other.Before(d) }
func (d Date) BeforeOrEqual(other Date) bool { return !other.Before(d) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Weekday returns the day of the week (the calendar view pads its first row
// with it).
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) IsZero() bool { return d == Date{} }

// MarshalText/UnmarshalText make Date round-trip through JSON as "YYYY-MM-DD".
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CYCLE KEY - "YYYY-MM" identifier of a semi-monthly pay cycle
// =============================================================================

// CycleKey identifies the pay cycle ending on the 15th of its month.
type CycleKey string

// NewCycleKey builds a key from a year and month, normalizing month overflow
// (month 13 of 2024 becomes 2025-01).
func NewCycleKey(year int, month time.Month) CycleKey {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return CycleKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// CycleKeyFor returns the pay cycle a date belongs to. Every date belongs to
// exactly one cycle.
func CycleKeyFor(d Date) CycleKey {
	if d.Day > 15 {
		return NewCycleKey(d.Year, d.Month+1)
	}
	return NewCycleKey(d.Year, d.Month)
}

// ParseCycleKey validates an externally supplied key. Internal callers build
// keys via NewCycleKey/CycleKeyFor and never need this.
func ParseCycleKey(s string) (CycleKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCycleKey, s)
	}
	return NewCycleKey(t.Year(), t.Month()), nil
}

func (k CycleKey) String() string { return string(k) }

// Year returns the 4-digit year component as a string, the form used by the
// per-year salary override map.
func (k CycleKey) Year() string {
	y, _, ok := k.parts()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%04d", y)
}

// Next returns the key one month later, Prev one month earlier. These back
// the month-arrow navigation in the UI.
func (k CycleKey) Next() CycleKey { return k.shift(1) }
func (k CycleKey) Prev() CycleKey { return k.shift(-1) }

func (k CycleKey) shift(months int) CycleKey {
	y, m, ok := k.parts()
	if !ok {
		return k
	}
	return NewCycleKey(y, m+time.Month(months))
}

func (k CycleKey) parts() (year int, month time.Month, ok bool) {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// =============================================================================
// CYCLE - The inclusive date range of a pay cycle
// =============================================================================

// Cycle is the [Start, End] date range a CycleKey stands for.
type Cycle struct {
	Start Date
	End   Date
}

// Range returns the cycle's date range: 16th of the prior month through the
// 15th of the key's month. A malformed key (a caller defect) yields the zero
// Cycle, which contains no dates.
func (k CycleKey) Range() Cycle {
	y, m, ok := k.parts()
	if !ok {
		return Cycle{}
	}
	return Cycle{
		Start: NewDate(y, m-1, 16),
		End:   NewDate(y, m, 15),
	}
}

// Contains reports whether the date falls inside the cycle, inclusive on both
// ends.
func (c Cycle) Contains(d Date) bool {
	if c == (Cycle{}) {
		return false
	}
	return d.AfterOrEqual(c.Start) && d.BeforeOrEqual(c.End)
}

// Days returns every date in the cycle in ascending order.
func (c Cycle) Days() []Date {
	if c == (Cycle{}) {
		return nil
	}
	var days []Date
	for current := c.Start; current.BeforeOrEqual(c.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (c Cycle) String() string {
	return "[" + c.Start.String() + ", " + c.End.String() + "]"
}
