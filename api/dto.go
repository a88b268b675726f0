/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface, decoupled from the engine's
  decimal types. Amounts cross the wire as plain numbers, dates as
  "YYYY-MM-DD", cycle keys as "YYYY-MM".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO is one overtime entry in API responses.
type RecordDTO struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	Hours            float64 `json:"hours"`
	Multiplier       float64 `json:"multiplier"`
	HourlyRateAtTime float64 `json:"hourly_rate_at_time"`
	TotalAmount      float64 `json:"total_amount"`
	Note             string  `json:"note,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// AddRecordRequest creates an overtime entry.
type AddRecordRequest struct {
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Multiplier float64 `json:"multiplier"`
	Note       string  `json:"note,omitempty"`
}

// PreviewRequest prices a would-be entry without creating it.
type PreviewRequest struct {
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Multiplier float64 `json:"multiplier"`
}

// PreviewDTO is the add-form's live computation.
type PreviewDTO struct {
	CycleKey   string  `json:"cycle_key"`
	Salary     float64 `json:"salary"`
	HourlyRate float64 `json:"hourly_rate"`
	Total      float64 `json:"total"`
}

// =============================================================================
// STATS / SUMMARIES / CALENDAR
// =============================================================================

// StatsDTO is the pay breakdown for one cycle.
type StatsDTO struct {
	CycleKey   string `json:"cycle_key"`
	RangeStart string `json:"range_start"`
	RangeEnd   string `json:"range_end"`

	Salary     float64 `json:"salary"`
	HourlyRate float64 `json:"hourly_rate"`

	TotalHours          float64 `json:"total_hours"`
	TotalOvertimeAmount float64 `json:"total_overtime_amount"`
	RecordCount         int     `json:"record_count"`

	FoodAllowance      float64 `json:"food_allowance"`
	DiligenceAllowance float64 `json:"diligence_allowance"`
	ShiftAllowance     float64 `json:"shift_allowance"`
	SpecialIncome      float64 `json:"special_income"`

	SocialSecurityDeduction float64 `json:"social_security_deduction"`
	ProvidentFundDeduction  float64 `json:"provident_fund_deduction"`

	GrossPay float64 `json:"gross_pay"`
	NetPay   float64 `json:"net_pay"`
}

// CycleSummaryDTO is one line of the all-time history.
type CycleSummaryDTO struct {
	CycleKey            string  `json:"cycle_key"`
	TotalOvertimeAmount float64 `json:"total_overtime_amount"`
	TotalHours          float64 `json:"total_hours"`
	RecordCount         int     `json:"record_count"`
}

// DayBucketDTO is one calendar cell.
type DayBucketDTO struct {
	Date          string      `json:"date"`
	Weekday       int         `json:"weekday"`
	Records       []RecordDTO `json:"records"`
	OvertimeTotal float64     `json:"overtime_total"`
	IsToday       bool        `json:"is_today"`
}

// CalendarDTO is the full grid for one cycle.
type CalendarDTO struct {
	CycleKey       string         `json:"cycle_key"`
	RangeStart     string         `json:"range_start"`
	RangeEnd       string         `json:"range_end"`
	StartDayOfWeek int            `json:"start_day_of_week"`
	Days           []DayBucketDTO `json:"days"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO is the full settings document in API responses.
type SettingsDTO struct {
	BaseSalary          float64            `json:"base_salary"`
	SalaryByYear        map[string]float64 `json:"salary_by_year"`
	WorkingDaysPerMonth int                `json:"working_days_per_month"`
	WorkingHoursPerDay  int                `json:"working_hours_per_day"`

	FoodAllowance      float64 `json:"food_allowance"`
	DiligenceAllowance float64 `json:"diligence_allowance"`
	ShiftAllowance     float64 `json:"shift_allowance"`
	SpecialIncome      float64 `json:"special_income"`

	ProvidentFundRatePercent float64 `json:"provident_fund_rate_percent"`

	SocialSecurityEnabled     bool    `json:"social_security_enabled"`
	SocialSecurityRatePercent float64 `json:"social_security_rate_percent"`
	SocialSecurityMaxAmount   float64 `json:"social_security_max_amount"`

	CycleOverrides map[string]CycleOverrideDTO `json:"cycle_overrides"`
}

// CycleOverrideDTO is one cycle's welfare bundle.
type CycleOverrideDTO struct {
	Salary              *float64 `json:"salary,omitempty"`
	WorkingDaysPerMonth int      `json:"working_days_per_month"`
	WorkingHoursPerDay  int      `json:"working_hours_per_day"`

	FoodAllowance      float64 `json:"food_allowance"`
	DiligenceAllowance float64 `json:"diligence_allowance"`
	ShiftAllowance     float64 `json:"shift_allowance"`
	SpecialIncome      float64 `json:"special_income"`

	ProvidentFundRatePercent float64 `json:"provident_fund_rate_percent"`
	SocialSecurityEnabled    bool    `json:"social_security_enabled"`
}

// UpdateSettingsRequest is a partial settings update; absent fields are
// untouched.
type UpdateSettingsRequest struct {
	BaseSalary          *float64 `json:"base_salary,omitempty"`
	WorkingDaysPerMonth *int     `json:"working_days_per_month,omitempty"`
	WorkingHoursPerDay  *int     `json:"working_hours_per_day,omitempty"`

	FoodAllowance      *float64 `json:"food_allowance,omitempty"`
	DiligenceAllowance *float64 `json:"diligence_allowance,omitempty"`
	ShiftAllowance     *float64 `json:"shift_allowance,omitempty"`
	SpecialIncome      *float64 `json:"special_income,omitempty"`

	ProvidentFundRatePercent *float64 `json:"provident_fund_rate_percent,omitempty"`

	SocialSecurityEnabled     *bool    `json:"social_security_enabled,omitempty"`
	SocialSecurityRatePercent *float64 `json:"social_security_rate_percent,omitempty"`
	SocialSecurityMaxAmount   *float64 `json:"social_security_max_amount,omitempty"`
}

// UpdateOverrideRequest is a partial update to one cycle's bundle.
type UpdateOverrideRequest struct {
	Salary      *float64 `json:"salary,omitempty"`
	ClearSalary bool     `json:"clear_salary,omitempty"`

	WorkingDaysPerMonth *int `json:"working_days_per_month,omitempty"`
	WorkingHoursPerDay  *int `json:"working_hours_per_day,omitempty"`

	FoodAllowance      *float64 `json:"food_allowance,omitempty"`
	DiligenceAllowance *float64 `json:"diligence_allowance,omitempty"`
	ShiftAllowance     *float64 `json:"shift_allowance,omitempty"`
	SpecialIncome      *float64 `json:"special_income,omitempty"`

	ProvidentFundRatePercent *float64 `json:"provident_fund_rate_percent,omitempty"`
	SocialSecurityEnabled    *bool    `json:"social_security_enabled,omitempty"`
}

// SetYearlySalaryRequest records a per-year salary override.
type SetYearlySalaryRequest struct {
	Salary float64 `json:"salary"`
}

// SyncStatusDTO is the non-blocking persistence indicator.
type SyncStatusDTO struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRecordDTO(r payroll.Record) RecordDTO {
	hours, _ := r.Hours.Float64()
	multiplier, _ := r.Multiplier.Decimal().Float64()
	rate, _ := r.HourlyRateAtTime.Float64()
	total, _ := r.TotalAmount.Float64()
	return RecordDTO{
		ID:               string(r.ID),
		Date:             r.Date.String(),
		Hours:            hours,
		Multiplier:       multiplier,
		HourlyRateAtTime: rate,
		TotalAmount:      total,
		Note:             r.Note,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

func toRecordDTOs(records []payroll.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

func toStatsDTO(s payroll.Stats) StatsDTO {
	cycle := s.CycleKey.Range()
	salary, _ := s.Salary.Float64()
	rate, _ := s.HourlyRate.Float64()
	hours, _ := s.TotalHours.Float64()
	overtime, _ := s.TotalOvertimeAmount.Float64()
	food, _ := s.Welfare.FoodAllowance.Float64()
	diligence, _ := s.Welfare.DiligenceAllowance.Float64()
	shift, _ := s.Welfare.ShiftAllowance.Float64()
	special, _ := s.Welfare.SpecialIncome.Float64()
	socialSecurity, _ := s.SocialSecurityDeduction.Float64()
	providentFund, _ := s.ProvidentFundDeduction.Float64()
	gross, _ := s.GrossPay.Float64()
	net, _ := s.NetPay.Float64()

	return StatsDTO{
		CycleKey:                s.CycleKey.String(),
		RangeStart:              cycle.Start.String(),
		RangeEnd:                cycle.End.String(),
		Salary:                  salary,
		HourlyRate:              rate,
		TotalHours:              hours,
		TotalOvertimeAmount:     overtime,
		RecordCount:             s.RecordCount,
		FoodAllowance:           food,
		DiligenceAllowance:      diligence,
		ShiftAllowance:          shift,
		SpecialIncome:           special,
		SocialSecurityDeduction: socialSecurity,
		ProvidentFundDeduction:  providentFund,
		GrossPay:                gross,
		NetPay:                  net,
	}
}

func toSettingsDTO(s payroll.Settings) SettingsDTO {
	base, _ := s.BaseSalary.Float64()
	food, _ := s.FoodAllowance.Float64()
	diligence, _ := s.DiligenceAllowance.Float64()
	shift, _ := s.ShiftAllowance.Float64()
	special, _ := s.SpecialIncome.Float64()
	pf, _ := s.ProvidentFundRatePercent.Float64()
	ssRate, _ := s.SocialSecurityRatePercent.Float64()
	ssMax, _ := s.SocialSecurityMaxAmount.Float64()

	byYear := make(map[string]float64, len(s.SalaryByYear))
	for year, salary := range s.SalaryByYear {
		v, _ := salary.Float64()
		byYear[year] = v
	}
	overrides := make(map[string]CycleOverrideDTO, len(s.CycleOverrides))
	for key, override := range s.CycleOverrides {
		overrides[key.String()] = toOverrideDTO(override)
	}

	return SettingsDTO{
		BaseSalary:                base,
		SalaryByYear:              byYear,
		WorkingDaysPerMonth:       s.WorkingDaysPerMonth,
		WorkingHoursPerDay:        s.WorkingHoursPerDay,
		FoodAllowance:             food,
		DiligenceAllowance:        diligence,
		ShiftAllowance:            shift,
		SpecialIncome:             special,
		ProvidentFundRatePercent:  pf,
		SocialSecurityEnabled:     s.SocialSecurityEnabled,
		SocialSecurityRatePercent: ssRate,
		SocialSecurityMaxAmount:   ssMax,
		CycleOverrides:            overrides,
	}
}

func toOverrideDTO(o payroll.CycleOverride) CycleOverrideDTO {
	dto := CycleOverrideDTO{
		WorkingDaysPerMonth:   o.WorkingDaysPerMonth,
		WorkingHoursPerDay:    o.WorkingHoursPerDay,
		SocialSecurityEnabled: o.SocialSecurityEnabled,
	}
	dto.FoodAllowance, _ = o.FoodAllowance.Float64()
	dto.DiligenceAllowance, _ = o.DiligenceAllowance.Float64()
	dto.ShiftAllowance, _ = o.ShiftAllowance.Float64()
	dto.SpecialIncome, _ = o.SpecialIncome.Float64()
	dto.ProvidentFundRatePercent, _ = o.ProvidentFundRatePercent.Float64()
	if o.Salary != nil {
		salary, _ := o.Salary.Float64()
		dto.Salary = &salary
	}
	return dto
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
