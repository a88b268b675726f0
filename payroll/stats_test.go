package payroll_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

func mustRecord(t *testing.T, s payroll.Settings, date payroll.Date, hours float64, m payroll.RateMultiplier) payroll.Record {
	t.Helper()
	record, err := payroll.NewRecord(date, dec(hours), m, "", s)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return record
}

// =============================================================================
// CYCLE FILTERING
// =============================================================================

func TestRecordsInCycle_InclusiveBoundsAndOrder(t *testing.T) {
	s := payroll.DefaultSettings()
	records := []payroll.Record{
		mustRecord(t, s, payroll.NewDate(2024, time.January, 15), 1, payroll.RateRegular),  // cycle 2024-01
		mustRecord(t, s, payroll.NewDate(2024, time.January, 16), 1, payroll.RateRegular),  // cycle 2024-02, range start
		mustRecord(t, s, payroll.NewDate(2024, time.February, 1), 2, payroll.RateDouble),   // cycle 2024-02
		mustRecord(t, s, payroll.NewDate(2024, time.February, 15), 1, payroll.RateRegular), // cycle 2024-02, range end
		mustRecord(t, s, payroll.NewDate(2024, time.February, 16), 1, payroll.RateRegular), // cycle 2024-03
	}

	filtered := payroll.RecordsInCycle(records, "2024-02")
	if len(filtered) != 3 {
		t.Fatalf("len = %d, want 3", len(filtered))
	}
	// Most recent date first.
	for i := 1; i < len(filtered); i++ {
		if filtered[i].Date.After(filtered[i-1].Date) {
			t.Errorf("records out of order: %s before %s", filtered[i-1].Date, filtered[i].Date)
		}
	}
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

func TestCycleStats_SocialSecurityFloorAndCap(t *testing.T) {
	// GIVEN: Social security enabled, rate 5%, cap 750, salary 20000, food 0
	// THEN: floor(20000 * 0.05) = 1000, capped to 750
	s := payroll.DefaultSettings()

	stats := payroll.ComputeStats("2024-02", nil, s)
	if !stats.SocialSecurityDeduction.Equal(dec(750)) {
		t.Errorf("deduction = %s, want capped 750", stats.SocialSecurityDeduction)
	}
}

func TestCycleStats_SocialSecurityFloorsBeforeCapping(t *testing.T) {
	// 14999 * 5% = 749.95 -> floor 749, under the cap. Rounding to nearest
	// would give 750; the deduction always floors.
	s := payroll.DefaultSettings()
	s.BaseSalary = dec(14999)

	stats := payroll.ComputeStats("2024-02", nil, s)
	if !stats.SocialSecurityDeduction.Equal(dec(749)) {
		t.Errorf("deduction = %s, want floored 749", stats.SocialSecurityDeduction)
	}
}

func TestCycleStats_SocialSecurityBaseIncludesFoodAllowance(t *testing.T) {
	s := payroll.DefaultSettings()
	s.BaseSalary = dec(10000)
	s.FoodAllowance = dec(1000)

	// (10000 + 1000) * 5% = 550.
	stats := payroll.ComputeStats("2024-02", nil, s)
	if !stats.SocialSecurityDeduction.Equal(dec(550)) {
		t.Errorf("deduction = %s, want 550", stats.SocialSecurityDeduction)
	}
}

func TestCycleStats_SocialSecurityDisabled(t *testing.T) {
	s := payroll.DefaultSettings()
	s.SocialSecurityEnabled = false

	stats := payroll.ComputeStats("2024-02", nil, s)
	if !stats.SocialSecurityDeduction.IsZero() {
		t.Errorf("deduction = %s, want 0", stats.SocialSecurityDeduction)
	}
}

func TestCycleStats_ProvidentFundUnfloored(t *testing.T) {
	s := payroll.DefaultSettings()
	s.BaseSalary = dec(14999)
	s.ProvidentFundRatePercent = dec(3)

	// 14999 * 3% = 449.97, no floor, no cap.
	stats := payroll.ComputeStats("2024-02", nil, s)
	if !stats.ProvidentFundDeduction.Equal(dec(449.97)) {
		t.Errorf("provident fund = %s, want 449.97", stats.ProvidentFundDeduction)
	}
}

// =============================================================================
// GROSS / NET
// =============================================================================

func TestCycleStats_GrossAndNet(t *testing.T) {
	s := payroll.DefaultSettings()
	s.FoodAllowance = dec(600)
	s.DiligenceAllowance = dec(500)
	s.ShiftAllowance = dec(400)
	s.SpecialIncome = dec(300)
	s.ProvidentFundRatePercent = dec(3)

	records := []payroll.Record{
		mustRecord(t, s, payroll.NewDate(2024, time.February, 1), 2, payroll.RateTimeAndAHalf), // 250.00
		mustRecord(t, s, payroll.NewDate(2024, time.February, 10), 4, payroll.RateRegular),     // 333.33
	}

	stats := payroll.ComputeStats("2024-02", records, s)

	if !stats.TotalHours.Equal(dec(6)) {
		t.Errorf("total hours = %s, want 6", stats.TotalHours)
	}
	if !stats.TotalOvertimeAmount.Round(2).Equal(dec(583.33)) {
		t.Errorf("overtime = %s, want 583.33", stats.TotalOvertimeAmount.Round(2))
	}

	// gross = 20000 + 583.33 + 600 + 500 + 400 + 300 = 22383.33
	if !stats.GrossPay.Round(2).Equal(dec(22383.33)) {
		t.Errorf("gross = %s, want 22383.33", stats.GrossPay.Round(2))
	}

	// SS: floor((20000+600)*0.05) = 1030 -> capped 750. PF: 20000*3% = 600.
	if !stats.SocialSecurityDeduction.Equal(dec(750)) {
		t.Errorf("social security = %s, want 750", stats.SocialSecurityDeduction)
	}
	if !stats.ProvidentFundDeduction.Equal(dec(600)) {
		t.Errorf("provident fund = %s, want 600", stats.ProvidentFundDeduction)
	}

	// net = 22383.33 - 750 - 600 = 21033.33
	if !stats.NetPay.Round(2).Equal(dec(21033.33)) {
		t.Errorf("net = %s, want 21033.33", stats.NetPay.Round(2))
	}
}

func TestCycleStats_OrderIndependent(t *testing.T) {
	s := payroll.DefaultSettings()
	records := []payroll.Record{
		mustRecord(t, s, payroll.NewDate(2024, time.January, 20), 1.5, payroll.RateRegular),
		mustRecord(t, s, payroll.NewDate(2024, time.February, 3), 2, payroll.RateDouble),
		mustRecord(t, s, payroll.NewDate(2024, time.February, 14), 3, payroll.RateTriple),
	}

	want := payroll.ComputeStats("2024-02", records, s)

	shuffled := append([]payroll.Record(nil), records...)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := payroll.ComputeStats("2024-02", shuffled, s)
		if !got.TotalOvertimeAmount.Equal(want.TotalOvertimeAmount) || !got.NetPay.Equal(want.NetPay) {
			t.Fatal("stats depend on record order")
		}
	}
}

func TestCycleStats_EmptyCycleIsZeros(t *testing.T) {
	s := payroll.DefaultSettings()
	stats := payroll.ComputeStats("2030-01", nil, s)

	if stats.RecordCount != 0 || !stats.TotalHours.IsZero() || !stats.TotalOvertimeAmount.IsZero() {
		t.Error("empty cycle should aggregate to zeros")
	}
	// Salary and deductions still resolve; the pay-slip exists even with no
	// overtime.
	if !stats.Salary.Equal(dec(20000)) {
		t.Errorf("salary = %s, want 20000", stats.Salary)
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func TestAllCycleSummaries_EmptyAndGrouped(t *testing.T) {
	// GIVEN: Zero records
	// THEN: An empty list, not nil-panics or a zero entry
	if got := payroll.AllCycleSummaries(nil); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}

	// GIVEN: Records spanning 3 distinct cycles
	// THEN: Exactly 3 entries, most recent cycle first, correct counts
	s := payroll.DefaultSettings()
	records := []payroll.Record{
		mustRecord(t, s, payroll.NewDate(2024, time.January, 10), 1, payroll.RateRegular),  // 2024-01
		mustRecord(t, s, payroll.NewDate(2024, time.February, 1), 1, payroll.RateRegular),  // 2024-02
		mustRecord(t, s, payroll.NewDate(2024, time.February, 10), 2, payroll.RateDouble),  // 2024-02
		mustRecord(t, s, payroll.NewDate(2024, time.February, 20), 1, payroll.RateRegular), // 2024-03
	}

	summaries := payroll.AllCycleSummaries(records)
	if len(summaries) != 3 {
		t.Fatalf("len = %d, want 3", len(summaries))
	}
	if summaries[0].CycleKey != "2024-03" || summaries[1].CycleKey != "2024-02" || summaries[2].CycleKey != "2024-01" {
		t.Errorf("order = %s, %s, %s", summaries[0].CycleKey, summaries[1].CycleKey, summaries[2].CycleKey)
	}
	if summaries[1].RecordCount != 2 {
		t.Errorf("2024-02 count = %d, want 2", summaries[1].RecordCount)
	}
	if !summaries[1].TotalHours.Equal(dec(3)) {
		t.Errorf("2024-02 hours = %s, want 3", summaries[1].TotalHours)
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendarDays_OneBucketPerDay(t *testing.T) {
	s := payroll.DefaultSettings()
	records := []payroll.Record{
		mustRecord(t, s, payroll.NewDate(2024, time.February, 1), 2, payroll.RateRegular),
		mustRecord(t, s, payroll.NewDate(2024, time.February, 1), 1, payroll.RateDouble),
		mustRecord(t, s, payroll.NewDate(2024, time.February, 10), 1, payroll.RateRegular),
	}

	today := payroll.NewDate(2024, time.February, 10)
	buckets := payroll.CalendarDays("2024-02", records, today)

	if len(buckets) != 31 {
		t.Fatalf("len = %d, want 31", len(buckets))
	}
	if buckets[0].Date != payroll.NewDate(2024, time.January, 16) {
		t.Errorf("first bucket = %s, want 2024-01-16", buckets[0].Date)
	}

	var withRecords, todayCount int
	for _, b := range buckets {
		if len(b.Records) > 0 {
			withRecords++
		}
		if b.IsToday {
			todayCount++
			if b.Date != today {
				t.Errorf("IsToday on %s, want %s", b.Date, today)
			}
		}
		// Each cell's total is the sum of its own records.
		sum := dec(0)
		for _, r := range b.Records {
			sum = sum.Add(r.TotalAmount)
		}
		if !b.OvertimeTotal.Equal(sum) {
			t.Errorf("%s total = %s, want %s", b.Date, b.OvertimeTotal, sum)
		}
	}
	if withRecords != 2 {
		t.Errorf("days with records = %d, want 2", withRecords)
	}
	if todayCount != 1 {
		t.Errorf("IsToday marked %d times, want 1", todayCount)
	}

	// Two records on Feb 1 share one bucket.
	for _, b := range buckets {
		if b.Date == payroll.NewDate(2024, time.February, 1) && len(b.Records) != 2 {
			t.Errorf("Feb 1 records = %d, want 2", len(b.Records))
		}
	}
}
