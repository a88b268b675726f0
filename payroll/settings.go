/*
settings.go - Salary and welfare configuration with temporal overrides

PURPOSE:
  One mutable Settings document per user, holding the global defaults
  plus two override maps:

    SalaryByYear:   "2024" -> salary for that year
    CycleOverrides: "2024-02" -> full welfare bundle for that cycle

  Resolution never fails. Every lookup falls through a precedence chain
  to the global defaults, so a brand-new user with an empty document
  gets sensible pay numbers immediately.

SALARY PRECEDENCE (one-shot, §ResolveSalary):
  1. Positive per-cycle override
  2. Per-year override
  3. Global default

  A zero or negative cycle override counts as "not set": the settings
  form allows typing 0 transiently and a stray 0 must never zero out
  real pay.

WELFARE PRECEDENCE (§ResolveWelfare):
  If an override bundle exists for the cycle, its fields are used;
  otherwise the global defaults are. The bundle is created lazily the
  first time any field for that cycle is edited, pre-seeded from the
  global defaults in force at that moment, so an existing bundle always
  carries a complete, deliberate set of values.

DIVISION GUARD:
  Working days/month and working hours/day of zero would make the
  hourly rate divide by zero. Resolution coerces zero (or negative) to
  1, deterministically, so valuation stays total.

SEE ALSO:
  - valuation.go: Consumes resolved salary + welfare
  - stats.go: Consumes both for gross/net pay
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// CYCLE OVERRIDE - Per-cycle welfare bundle
// =============================================================================

// CycleOverride is the welfare bundle for a single pay cycle. Its presence in
// Settings.CycleOverrides is the "configured" tag: absent means every field
// falls back to the global defaults, present means the bundle's fields apply.
type CycleOverride struct {
	// Salary is nil when the cycle carries no salary override. A non-nil
	// zero-or-negative value is also treated as unset by resolution.
	Salary *decimal.Decimal `json:"salary,omitempty"`

	WorkingDaysPerMonth int `json:"working_days_per_month"`
	WorkingHoursPerDay  int `json:"working_hours_per_day"`

	FoodAllowance      decimal.Decimal `json:"food_allowance"`
	DiligenceAllowance decimal.Decimal `json:"diligence_allowance"`
	ShiftAllowance     decimal.Decimal `json:"shift_allowance"`
	SpecialIncome      decimal.Decimal `json:"special_income"`

	ProvidentFundRatePercent decimal.Decimal `json:"provident_fund_rate_percent"`
	SocialSecurityEnabled    bool            `json:"social_security_enabled"`
}

// =============================================================================
// SETTINGS - Per-user configuration document
// =============================================================================

type Settings struct {
	BaseSalary decimal.Decimal `json:"base_salary"`

	// SalaryByYear maps a 4-digit year string to an override salary.
	SalaryByYear map[string]decimal.Decimal `json:"salary_by_year,omitempty"`

	// CycleOverrides maps a cycle key to its welfare bundle.
	CycleOverrides map[CycleKey]CycleOverride `json:"cycle_overrides,omitempty"`

	WorkingDaysPerMonth int `json:"working_days_per_month"`
	WorkingHoursPerDay  int `json:"working_hours_per_day"`

	FoodAllowance      decimal.Decimal `json:"food_allowance"`
	DiligenceAllowance decimal.Decimal `json:"diligence_allowance"`
	ShiftAllowance     decimal.Decimal `json:"shift_allowance"`
	SpecialIncome      decimal.Decimal `json:"special_income"`

	ProvidentFundRatePercent decimal.Decimal `json:"provident_fund_rate_percent"`

	SocialSecurityEnabled     bool            `json:"social_security_enabled"`
	SocialSecurityRatePercent decimal.Decimal `json:"social_security_rate_percent"`
	SocialSecurityMaxAmount   decimal.Decimal `json:"social_security_max_amount"`
}

// DefaultSettings returns the configuration a new user starts with.
func DefaultSettings() Settings {
	return Settings{
		BaseSalary:                decimal.NewFromInt(20000),
		WorkingDaysPerMonth:       30,
		WorkingHoursPerDay:        8,
		FoodAllowance:             decimal.Zero,
		DiligenceAllowance:        decimal.Zero,
		ShiftAllowance:            decimal.Zero,
		SpecialIncome:             decimal.Zero,
		ProvidentFundRatePercent:  decimal.Zero,
		SocialSecurityEnabled:     true,
		SocialSecurityRatePercent: decimal.NewFromInt(5),
		SocialSecurityMaxAmount:   decimal.NewFromInt(750),
	}
}

// Clone returns a deep copy. The maps are copied, so mutating the clone never
// leaks into the original.
func (s Settings) Clone() Settings {
	out := s
	if s.SalaryByYear != nil {
		out.SalaryByYear = make(map[string]decimal.Decimal, len(s.SalaryByYear))
		for year, salary := range s.SalaryByYear {
			out.SalaryByYear[year] = salary
		}
	}
	if s.CycleOverrides != nil {
		out.CycleOverrides = make(map[CycleKey]CycleOverride, len(s.CycleOverrides))
		for key, override := range s.CycleOverrides {
			if override.Salary != nil {
				salary := *override.Salary
				override.Salary = &salary
			}
			out.CycleOverrides[key] = override
		}
	}
	return out
}

// EnsureCycleOverride returns the override bundle for the cycle, creating it
// lazily from the current global defaults if it does not exist yet. The
// returned pointer addresses a copy; the caller mutates it and it is written
// back to the map.
func (s *Settings) EnsureCycleOverride(key CycleKey) *CycleOverride {
	if s.CycleOverrides == nil {
		s.CycleOverrides = make(map[CycleKey]CycleOverride)
	}
	override, ok := s.CycleOverrides[key]
	if !ok {
		override = CycleOverride{
			WorkingDaysPerMonth:      s.WorkingDaysPerMonth,
			WorkingHoursPerDay:       s.WorkingHoursPerDay,
			FoodAllowance:            s.FoodAllowance,
			DiligenceAllowance:       s.DiligenceAllowance,
			ShiftAllowance:           s.ShiftAllowance,
			SpecialIncome:            s.SpecialIncome,
			ProvidentFundRatePercent: s.ProvidentFundRatePercent,
			SocialSecurityEnabled:    s.SocialSecurityEnabled,
		}
		s.CycleOverrides[key] = override
	}
	return &override
}

// SetCycleOverride writes a bundle back for the cycle.
func (s *Settings) SetCycleOverride(key CycleKey, override CycleOverride) {
	if s.CycleOverrides == nil {
		s.CycleOverrides = make(map[CycleKey]CycleOverride)
	}
	s.CycleOverrides[key] = override
}

// =============================================================================
// SALARY RESOLUTION
// =============================================================================

// ResolveSalary determines the base salary in force for a pay cycle:
// positive cycle override, else year override, else global default.
// Missing entries are not errors; they fall through.
func (s Settings) ResolveSalary(key CycleKey) decimal.Decimal {
	if override, ok := s.CycleOverrides[key]; ok {
		if override.Salary != nil && override.Salary.IsPositive() {
			return *override.Salary
		}
	}
	if salary, ok := s.SalaryByYear[key.Year()]; ok && salary.IsPositive() {
		return salary
	}
	return s.BaseSalary
}

// =============================================================================
// WELFARE RESOLUTION
// =============================================================================

// Welfare is the resolved allowance/deduction bundle for a pay cycle.
type Welfare struct {
	WorkingDaysPerMonth int
	WorkingHoursPerDay  int

	FoodAllowance      decimal.Decimal
	DiligenceAllowance decimal.Decimal
	ShiftAllowance     decimal.Decimal
	SpecialIncome      decimal.Decimal

	ProvidentFundRatePercent decimal.Decimal
	SocialSecurityEnabled    bool
}

// ResolveWelfare determines the welfare bundle in force for a pay cycle:
// the cycle's override bundle if one exists, else the global defaults.
// Working days/hours of zero or less resolve as 1 so the hourly-rate
// division stays defined.
func (s Settings) ResolveWelfare(key CycleKey) Welfare {
	w := Welfare{
		WorkingDaysPerMonth:      s.WorkingDaysPerMonth,
		WorkingHoursPerDay:       s.WorkingHoursPerDay,
		FoodAllowance:            s.FoodAllowance,
		DiligenceAllowance:       s.DiligenceAllowance,
		ShiftAllowance:           s.ShiftAllowance,
		SpecialIncome:            s.SpecialIncome,
		ProvidentFundRatePercent: s.ProvidentFundRatePercent,
		SocialSecurityEnabled:    s.SocialSecurityEnabled,
	}
	if override, ok := s.CycleOverrides[key]; ok {
		w.WorkingDaysPerMonth = override.WorkingDaysPerMonth
		w.WorkingHoursPerDay = override.WorkingHoursPerDay
		w.FoodAllowance = override.FoodAllowance
		w.DiligenceAllowance = override.DiligenceAllowance
		w.ShiftAllowance = override.ShiftAllowance
		w.SpecialIncome = override.SpecialIncome
		w.ProvidentFundRatePercent = override.ProvidentFundRatePercent
		w.SocialSecurityEnabled = override.SocialSecurityEnabled
	}
	if w.WorkingDaysPerMonth <= 0 {
		w.WorkingDaysPerMonth = 1
	}
	if w.WorkingHoursPerDay <= 0 {
		w.WorkingHoursPerDay = 1
	}
	return w
}

// WorkingHoursPerCycle is the divisor for the hourly rate.
func (w Welfare) WorkingHoursPerCycle() decimal.Decimal {
	return decimal.NewFromInt(int64(w.WorkingDaysPerMonth * w.WorkingHoursPerDay))
}
