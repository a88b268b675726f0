/*
stats.go - Pay-cycle aggregation

PURPOSE:
  Rolls the full record set up into per-cycle pay numbers:

    Stats            One cycle's gross/net breakdown (the pay-slip view)
    CycleSummary     One line per cycle ever recorded (the history view)
    DayBucket        One entry per calendar day of a cycle (the grid view)

DEDUCTIONS:
  Social security, when enabled, is computed on (salary + food allowance),
  FLOORED - not rounded - and then capped:

    min(cap, floor((salary + food) * rate / 100))

  The floor matters at the cap boundary and is reproduced exactly.
  Provident fund is salary * rate / 100 with no floor and no cap.

ORDER INDEPENDENCE:
  Record lists are sorted for display (most recent first), but every sum
  here is order-independent; aggregating a shuffled record set yields the
  same Stats.

  All functions are total: an unknown cycle or an empty record set
  produces zeros, never a panic.

SEE ALSO:
  - valuation.go: Where per-record amounts come from
  - settings.go: Salary/welfare resolution
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// =============================================================================
// CYCLE STATS - The pay-slip for one cycle
// =============================================================================

// Stats is the full pay breakdown for one cycle.
type Stats struct {
	CycleKey CycleKey
	Salary   decimal.Decimal
	Welfare  Welfare

	// HourlyRate is the cycle's base overtime rate at multiplier 1.
	HourlyRate decimal.Decimal

	TotalHours          decimal.Decimal
	TotalOvertimeAmount decimal.Decimal
	RecordCount         int

	SocialSecurityDeduction decimal.Decimal
	ProvidentFundDeduction  decimal.Decimal

	GrossPay decimal.Decimal
	NetPay   decimal.Decimal
}

// RecordsInCycle filters records to the cycle's date range, most recent date
// first. Records on the same date keep their relative order.
func RecordsInCycle(records []Record, key CycleKey) []Record {
	cycle := key.Range()
	var filtered []Record
	for _, r := range records {
		if cycle.Contains(r.Date) {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[j].Date.Before(filtered[i].Date)
	})
	return filtered
}

// ComputeStats aggregates one cycle. Overtime amounts are the records' stored
// creation-time snapshots; salary, allowances, and deductions are resolved
// from the current settings.
func ComputeStats(key CycleKey, records []Record, settings Settings) Stats {
	salary := settings.ResolveSalary(key)
	welfare := settings.ResolveWelfare(key)

	totalHours := decimal.Zero
	totalOvertime := decimal.Zero
	count := 0
	for _, r := range RecordsInCycle(records, key) {
		totalHours = totalHours.Add(r.Hours)
		totalOvertime = totalOvertime.Add(r.TotalAmount)
		count++
	}

	socialSecurity := decimal.Zero
	if welfare.SocialSecurityEnabled {
		base := salary.Add(welfare.FoodAllowance)
		contribution := base.Mul(settings.SocialSecurityRatePercent).Div(oneHundred).Floor()
		socialSecurity = decimal.Min(settings.SocialSecurityMaxAmount, contribution)
	}
	providentFund := salary.Mul(welfare.ProvidentFundRatePercent).Div(oneHundred)

	gross := salary.
		Add(totalOvertime).
		Add(welfare.FoodAllowance).
		Add(welfare.DiligenceAllowance).
		Add(welfare.ShiftAllowance).
		Add(welfare.SpecialIncome)
	net := gross.Sub(socialSecurity).Sub(providentFund)

	return Stats{
		CycleKey:                key,
		Salary:                  salary,
		Welfare:                 welfare,
		HourlyRate:              salary.Div(welfare.WorkingHoursPerCycle()),
		TotalHours:              totalHours,
		TotalOvertimeAmount:     totalOvertime,
		RecordCount:             count,
		SocialSecurityDeduction: socialSecurity,
		ProvidentFundDeduction:  providentFund,
		GrossPay:                gross,
		NetPay:                  net,
	}
}

// =============================================================================
// HISTORY - One summary line per cycle ever recorded
// =============================================================================

// CycleSummary is one line of the all-time history view.
type CycleSummary struct {
	CycleKey            CycleKey
	TotalOvertimeAmount decimal.Decimal
	TotalHours          decimal.Decimal
	RecordCount         int
}

// AllCycleSummaries groups every record by its own pay cycle, most recent
// cycle first. Amounts are the stored snapshots; an empty record set yields
// an empty list.
func AllCycleSummaries(records []Record) []CycleSummary {
	byCycle := make(map[CycleKey]*CycleSummary)
	for _, r := range records {
		key := r.CycleKey()
		summary, ok := byCycle[key]
		if !ok {
			summary = &CycleSummary{
				CycleKey:            key,
				TotalOvertimeAmount: decimal.Zero,
				TotalHours:          decimal.Zero,
			}
			byCycle[key] = summary
		}
		summary.TotalOvertimeAmount = summary.TotalOvertimeAmount.Add(r.TotalAmount)
		summary.TotalHours = summary.TotalHours.Add(r.Hours)
		summary.RecordCount++
	}

	summaries := make([]CycleSummary, 0, len(byCycle))
	for _, summary := range byCycle {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CycleKey > summaries[j].CycleKey
	})
	return summaries
}

// =============================================================================
// CALENDAR - One bucket per day of a cycle
// =============================================================================

// DayBucket is one calendar cell: a day of the cycle with that day's records.
type DayBucket struct {
	Date          Date
	Records       []Record
	OvertimeTotal decimal.Decimal
	IsToday       bool
}

// CalendarDays returns one bucket per day of the cycle's range, ascending.
// IsToday compares against the passed date, which callers recompute at render
// time rather than caching.
func CalendarDays(key CycleKey, records []Record, today Date) []DayBucket {
	inCycle := RecordsInCycle(records, key)

	days := key.Range().Days()
	buckets := make([]DayBucket, 0, len(days))
	for _, day := range days {
		bucket := DayBucket{
			Date:          day,
			OvertimeTotal: decimal.Zero,
			IsToday:       day.Equal(today),
		}
		for _, r := range inCycle {
			if r.Date.Equal(day) {
				bucket.Records = append(bucket.Records, r)
				bucket.OvertimeTotal = bucket.OvertimeTotal.Add(r.TotalAmount)
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
