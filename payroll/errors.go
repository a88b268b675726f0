/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All engine errors in one place. Two taxonomies matter here:

  1. Invalid input (bad date string, non-positive hours, unknown rate
     multiplier) - rejected at the boundary with a sentinel the caller
     can match with errors.Is().
  2. Configuration gaps (no salary override for a cycle, no welfare
     override) - NOT errors. Resolution falls through a precedence
     chain and always produces a value. No function in this package
     fails because configuration is missing.

  Malformed cycle keys reaching Range() are a caller defect, not a
  runtime condition; they resolve to an empty range rather than a
  panic so aggregation stays total.

SEE ALSO:
  - settings.go: The fallback chains that make configuration gaps benign
*/
package payroll

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string is not a valid
	// zero-padded YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidCycleKey is returned when an externally supplied cycle key
	// is not of the form YYYY-MM.
	ErrInvalidCycleKey = errors.New("invalid cycle key")

	// ErrInvalidHours is returned when overtime hours are zero, negative,
	// or otherwise not a usable quantity.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrUnknownMultiplier is returned when a rate multiplier is outside
	// the closed set {1, 1.5, 2, 3}.
	ErrUnknownMultiplier = errors.New("unknown rate multiplier")

	// ErrRecordNotFound is returned when removing a record that does not
	// exist (already deleted, or never created).
	ErrRecordNotFound = errors.New("record not found")
)
