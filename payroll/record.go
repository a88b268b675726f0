/*
record.go - The immutable overtime fact

PURPOSE:
  A Record is one logged stretch of overtime: a date, a number of hours,
  and a rate-of-pay multiplier. Records are never edited after creation,
  only deleted. The hourly rate and total amount are computed ONCE, at
  creation time, from the settings in force for the record's pay cycle,
  and stored on the record for audit. Later settings edits do not rewrite
  history; the stored snapshot is what the record is worth.

SEE ALSO:
  - valuation.go: How the snapshot is computed
  - stats.go: How stored snapshots roll up into cycle totals
*/
package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE MULTIPLIER - Closed enumeration {1, 1.5, 2, 3}
// =============================================================================

// RateMultiplier is the pay multiplier for an overtime stretch
// (e.g. time-and-a-half).
type RateMultiplier string

const (
	RateRegular       RateMultiplier = "1"
	RateTimeAndAHalf  RateMultiplier = "1.5"
	RateDouble        RateMultiplier = "2"
	RateTriple        RateMultiplier = "3"
)

// Valid reports whether the multiplier is one of the closed set.
func (m RateMultiplier) Valid() bool {
	switch m {
	case RateRegular, RateTimeAndAHalf, RateDouble, RateTriple:
		return true
	}
	return false
}

// Decimal returns the multiplier as an exact decimal factor.
func (m RateMultiplier) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(m))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseRateMultiplier maps a numeric factor to the closed enumeration.
func ParseRateMultiplier(factor float64) (RateMultiplier, error) {
	switch factor {
	case 1:
		return RateRegular, nil
	case 1.5:
		return RateTimeAndAHalf, nil
	case 2:
		return RateDouble, nil
	case 3:
		return RateTriple, nil
	}
	return "", ErrUnknownMultiplier
}

// =============================================================================
// RECORD
// =============================================================================

type RecordID string

// NewRecordID returns a fresh opaque identifier.
func NewRecordID() RecordID {
	return RecordID(uuid.NewString())
}

// Record is an immutable overtime entry. Once created it is never edited,
// only deleted.
type Record struct {
	ID         RecordID       `json:"id"`
	Date       Date           `json:"date"`
	Hours      decimal.Decimal `json:"hours"`
	Multiplier RateMultiplier `json:"multiplier"`

	// Snapshotted at creation from the settings in force for the record's
	// pay cycle. Retained even if configuration later changes.
	HourlyRateAtTime decimal.Decimal `json:"hourly_rate_at_time"`
	TotalAmount      decimal.Decimal `json:"total_amount"`

	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CycleKey returns the pay cycle the record belongs to.
func (r Record) CycleKey() CycleKey {
	return CycleKeyFor(r.Date)
}
