/*
valuation.go - Pricing one overtime stretch

PURPOSE:
  Turns (date, hours, multiplier) into money:

    hourlyRate = salary / (workingDaysPerMonth * workingHoursPerDay)
    total      = hours * hourlyRate * multiplier

  Salary and welfare are resolved against the SEMI-MONTHLY PAY CYCLE
  containing the date, not the raw calendar month. Aggregation uses the
  same key, so the total a cycle displays always equals the sum of the
  amounts its records display.

SNAPSHOT POLICY:
  Valuate runs exactly once per record, at creation, and the result is
  stored on the record (NewRecord). History always shows the stored
  snapshot; editing past settings does not silently reprice old entries.
  The one live use of Valuate after that is the add-form preview, which
  prices a record that does not exist yet.

SEE ALSO:
  - settings.go: The resolution chains
  - stats.go: Rolls stored snapshots into cycle totals
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is the priced outcome for one overtime stretch.
type Valuation struct {
	CycleKey   CycleKey
	Salary     decimal.Decimal
	HourlyRate decimal.Decimal
	Total      decimal.Decimal
}

// Valuate prices hours worked on a date at a multiplier, using the settings
// in force for the date's pay cycle. Total: missing configuration resolves
// through the fallback chain, zero working time resolves as 1.
func Valuate(date Date, hours decimal.Decimal, multiplier RateMultiplier, settings Settings) Valuation {
	key := CycleKeyFor(date)
	salary := settings.ResolveSalary(key)
	welfare := settings.ResolveWelfare(key)

	hourlyRate := salary.Div(welfare.WorkingHoursPerCycle())
	total := hours.Mul(hourlyRate).Mul(multiplier.Decimal())

	return Valuation{
		CycleKey:   key,
		Salary:     salary,
		HourlyRate: hourlyRate,
		Total:      total,
	}
}

// NewRecord validates the input, prices it against the current settings, and
// returns the immutable record carrying the snapshot.
func NewRecord(date Date, hours decimal.Decimal, multiplier RateMultiplier, note string, settings Settings) (Record, error) {
	if !hours.IsPositive() {
		return Record{}, ErrInvalidHours
	}
	if !multiplier.Valid() {
		return Record{}, ErrUnknownMultiplier
	}

	v := Valuate(date, hours, multiplier, settings)
	return Record{
		ID:               NewRecordID(),
		Date:             date,
		Hours:            hours,
		Multiplier:       multiplier,
		HourlyRateAtTime: v.HourlyRate,
		TotalAmount:      v.Total,
		Note:             note,
		CreatedAt:        time.Now(),
	}, nil
}
