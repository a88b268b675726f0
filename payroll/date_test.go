package payroll_test

import (
	"testing"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// CYCLE KEY MEMBERSHIP
// =============================================================================

func TestCycleKeyFor_DayFifteenOrEarlier_OwnMonth(t *testing.T) {
	// GIVEN: Dates on or before the 15th
	// THEN: The cycle key is the date's own month
	cases := []struct {
		date payroll.Date
		want payroll.CycleKey
	}{
		{payroll.NewDate(2024, time.February, 1), "2024-02"},
		{payroll.NewDate(2024, time.February, 15), "2024-02"},
		{payroll.NewDate(2025, time.January, 15), "2025-01"},
		{payroll.NewDate(2024, time.July, 10), "2024-07"},
	}
	for _, c := range cases {
		if got := payroll.CycleKeyFor(c.date); got != c.want {
			t.Errorf("CycleKeyFor(%s) = %s, want %s", c.date, got, c.want)
		}
	}
}

func TestCycleKeyFor_AfterFifteenth_NextMonth(t *testing.T) {
	// GIVEN: A record dated the 16th of month M
	// THEN: It belongs to cycle M+1, not cycle M
	cases := []struct {
		date payroll.Date
		want payroll.CycleKey
	}{
		{payroll.NewDate(2024, time.February, 16), "2024-03"},
		{payroll.NewDate(2024, time.July, 31), "2024-08"},
		{payroll.NewDate(2024, time.December, 16), "2025-01"}, // year rollover
		{payroll.NewDate(2024, time.December, 31), "2025-01"},
	}
	for _, c := range cases {
		if got := payroll.CycleKeyFor(c.date); got != c.want {
			t.Errorf("CycleKeyFor(%s) = %s, want %s", c.date, got, c.want)
		}
	}
}

func TestCycleRange_SixteenthThroughFifteenth(t *testing.T) {
	cycle := payroll.CycleKey("2024-02").Range()

	if cycle.Start != payroll.NewDate(2024, time.January, 16) {
		t.Errorf("start = %s, want 2024-01-16", cycle.Start)
	}
	if cycle.End != payroll.NewDate(2024, time.February, 15) {
		t.Errorf("end = %s, want 2024-02-15", cycle.End)
	}

	// January's cycle reaches back into the previous year.
	cycle = payroll.CycleKey("2025-01").Range()
	if cycle.Start != payroll.NewDate(2024, time.December, 16) {
		t.Errorf("start = %s, want 2024-12-16", cycle.Start)
	}
}

func TestCycleRange_AlwaysContainsItsDates(t *testing.T) {
	// Property: cycleRange(toCycleKey(d)) contains d, for a sweep of dates
	// including month and year boundaries.
	d := payroll.NewDate(2023, time.November, 20)
	end := payroll.NewDate(2025, time.March, 10)
	for ; d.BeforeOrEqual(end); d = d.AddDays(1) {
		key := payroll.CycleKeyFor(d)
		if !key.Range().Contains(d) {
			t.Fatalf("cycle %s range %s does not contain %s", key, key.Range(), d)
		}
	}
}

func TestCycleRange_DayCount(t *testing.T) {
	// February 2024 cycle: Jan 16 .. Feb 15 = 16 + 15 days.
	days := payroll.CycleKey("2024-02").Range().Days()
	if len(days) != 31 {
		t.Errorf("len(days) = %d, want 31", len(days))
	}
	if days[0] != payroll.NewDate(2024, time.January, 16) {
		t.Errorf("first day = %s, want 2024-01-16", days[0])
	}
	if days[len(days)-1] != payroll.NewDate(2024, time.February, 15) {
		t.Errorf("last day = %s, want 2024-02-15", days[len(days)-1])
	}
}

// =============================================================================
// FORMAT / PARSE ROUND-TRIP
// =============================================================================

func TestDate_RoundTrip(t *testing.T) {
	// Property: ParseDate(d.String()) == d across a multi-year sweep that
	// crosses a leap day.
	d := payroll.NewDate(2023, time.December, 1)
	end := payroll.NewDate(2024, time.March, 15)
	for ; d.BeforeOrEqual(end); d = d.AddDays(1) {
		parsed, err := payroll.ParseDate(d.String())
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", d.String(), err)
		}
		if parsed != d {
			t.Fatalf("round trip %q -> %s", d.String(), parsed)
		}
	}
}

func TestDate_StringZeroPadded(t *testing.T) {
	d := payroll.NewDate(2024, time.February, 5)
	if d.String() != "2024-02-05" {
		t.Errorf("String() = %q, want 2024-02-05", d.String())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024-2-5", "2024-13-01", "not-a-date", "2024-02-30"} {
		if _, err := payroll.ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}

// =============================================================================
// KEY NAVIGATION
// =============================================================================

func TestCycleKey_NextPrev(t *testing.T) {
	key := payroll.CycleKey("2024-12")
	if key.Next() != "2025-01" {
		t.Errorf("Next() = %s, want 2025-01", key.Next())
	}
	if payroll.CycleKey("2025-01").Prev() != "2024-12" {
		t.Errorf("Prev() = %s, want 2024-12", payroll.CycleKey("2025-01").Prev())
	}
}

func TestCycleKey_Year(t *testing.T) {
	if y := payroll.CycleKey("2024-02").Year(); y != "2024" {
		t.Errorf("Year() = %q, want 2024", y)
	}
}

func TestParseCycleKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "2024", "2024-13", "02-2024", "2024-2"} {
		if _, err := payroll.ParseCycleKey(s); err == nil {
			t.Errorf("ParseCycleKey(%q) should fail", s)
		}
	}
}

func TestCycleRange_MalformedKeyIsEmpty(t *testing.T) {
	// A malformed key is a caller defect; it must stay total, not panic.
	cycle := payroll.CycleKey("garbage").Range()
	if cycle.Contains(payroll.Today()) {
		t.Error("malformed key range should contain nothing")
	}
	if len(cycle.Days()) != 0 {
		t.Error("malformed key range should have no days")
	}
}
