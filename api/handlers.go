/*
handlers.go - HTTP API handlers for the overtime tracker

PURPOSE:
  Exposes the payroll engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the per-user Tracker.

ENDPOINTS:
  Records:
    GET    /api/records?cycle=YYYY-MM   Records of one cycle
    POST   /api/records                 Log an overtime entry
    DELETE /api/records/{id}            Delete an entry
    POST   /api/records/preview         Price a would-be entry

  Cycles:
    GET    /api/cycles                  All-time per-cycle history
    GET    /api/cycles/{key}/stats      Pay breakdown for one cycle
    GET    /api/cycles/{key}/calendar   Day-bucketed view of one cycle

  Settings:
    GET    /api/settings                Full settings document
    PATCH  /api/settings                Partial update of global defaults
    PATCH  /api/settings/cycles/{key}   Partial update of one cycle's bundle
    PUT    /api/settings/years/{year}   Set per-year salary override
    DELETE /api/settings/years/{year}   Clear per-year salary override

  Sync:
    GET    /api/sync/status             Persistence indicator

SESSIONS:
  The Handler keeps one Tracker per user, created lazily on the user's
  first request by racing the local cache against the remote store.
  Every mutation flows through the Tracker, which persists behind the
  response (optimistic local-first; the HTTP call never waits on the
  remote push).

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 401: No usable credentials
  - 404: Record not found
  - 500: Storage failures during session load

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store"
	"github.com/warp/payroll-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Local  store.Repository // durable cache, may be nil
	Remote store.Repository // sync endpoint, may be nil
	Sync   tracker.SyncOptions
	Log    logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry makes session creation single-flight per user. The handler
// lock covers only the map lookup; the load itself runs under the entry's
// once, so one user's cold load never stalls another user's request.
type sessionEntry struct {
	once sync.Once
	t    *tracker.Tracker
}

// NewHandler creates a handler over the two sides of the repository boundary.
func NewHandler(local, remote store.Repository, syncOpts tracker.SyncOptions, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Local:    local,
		Remote:   remote,
		Sync:     syncOpts,
		Log:      log,
		sessions: make(map[string]*sessionEntry),
	}
}

// session returns the user's Tracker, loading state on first touch.
func (h *Handler) session(ctx context.Context, userID string) *tracker.Tracker {
	h.mu.Lock()
	entry, ok := h.sessions[userID]
	if !ok {
		entry = &sessionEntry{}
		h.sessions[userID] = entry
	}
	h.mu.Unlock()

	entry.once.Do(func() {
		remoteTimeout := h.Sync.PushTimeout
		if remoteTimeout <= 0 {
			remoteTimeout = 5 * time.Second
		}
		state, source, err := tracker.LoadState(ctx, h.Local, h.Remote, userID, remoteTimeout)
		if err != nil {
			h.Log.WithError(err).WithField("user", userID).Warn("remote load failed, continuing from fallback")
		}
		h.Log.WithFields(logrus.Fields{"user": userID, "source": source}).Info("session loaded")

		scheduler := tracker.NewSyncScheduler(h.Local, h.Remote, userID, h.Sync, h.Log)
		entry.t = tracker.New(userID, state, scheduler, h.Log)
	})
	return entry.t
}

// Shutdown flushes every session's pending state.
func (h *Handler) Shutdown(ctx context.Context) {
	h.mu.Lock()
	entries := make(map[string]*sessionEntry, len(h.sessions))
	for userID, entry := range h.sessions {
		entries[userID] = entry
	}
	h.mu.Unlock()

	for userID, entry := range entries {
		entry.once.Do(func() {}) // waits out an in-flight load
		if entry.t == nil {
			continue
		}
		if err := entry.t.Flush(ctx); err != nil {
			h.Log.WithError(err).WithField("user", userID).Warn("flush on shutdown failed")
		}
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns the records of one cycle (default: the cycle of today).
// GET /api/records?cycle=YYYY-MM
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	t := h.session(r.Context(), UserID(r.Context()))

	key := payroll.CycleKeyFor(payroll.Today())
	if raw := r.URL.Query().Get("cycle"); raw != "" {
		parsed, err := payroll.ParseCycleKey(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cycle key (use YYYY-MM)", err)
			return
		}
		key = parsed
	}

	writeJSON(w, http.StatusOK, toRecordDTOs(t.RecordsInCycle(key)))
}

// AddRecord logs an overtime entry.
// POST /api/records
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	var req AddRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	multiplier, err := payroll.ParseRateMultiplier(req.Multiplier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Rate multiplier must be 1, 1.5, 2 or 3", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	record, err := t.AddRecord(date, decimal.NewFromFloat(req.Hours), multiplier, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not add record", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordDTO(record))
}

// RemoveRecord deletes an entry.
// DELETE /api/records/{id}
func (h *Handler) RemoveRecord(w http.ResponseWriter, r *http.Request) {
	t := h.session(r.Context(), UserID(r.Context()))

	id := payroll.RecordID(chi.URLParam(r, "id"))
	if err := t.RemoveRecord(id); err != nil {
		if errors.Is(err, payroll.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Record not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not remove record", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PreviewRecord prices a would-be entry against current settings.
// POST /api/records/preview
func (h *Handler) PreviewRecord(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	multiplier, err := payroll.ParseRateMultiplier(req.Multiplier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Rate multiplier must be 1, 1.5, 2 or 3", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	v := t.Preview(date, decimal.NewFromFloat(req.Hours), multiplier)

	salary, _ := v.Salary.Float64()
	rate, _ := v.HourlyRate.Float64()
	total, _ := v.Total.Float64()
	writeJSON(w, http.StatusOK, PreviewDTO{
		CycleKey:   v.CycleKey.String(),
		Salary:     salary,
		HourlyRate: rate,
		Total:      total,
	})
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

// ListCycleSummaries returns the all-time per-cycle history.
// GET /api/cycles
func (h *Handler) ListCycleSummaries(w http.ResponseWriter, r *http.Request) {
	t := h.session(r.Context(), UserID(r.Context()))

	summaries := t.AllCycleSummaries()
	dtos := make([]CycleSummaryDTO, len(summaries))
	for i, s := range summaries {
		amount, _ := s.TotalOvertimeAmount.Float64()
		hours, _ := s.TotalHours.Float64()
		dtos[i] = CycleSummaryDTO{
			CycleKey:            s.CycleKey.String(),
			TotalOvertimeAmount: amount,
			TotalHours:          hours,
			RecordCount:         s.RecordCount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCycleStats returns the pay breakdown for one cycle.
// GET /api/cycles/{key}/stats
func (h *Handler) GetCycleStats(w http.ResponseWriter, r *http.Request) {
	key, err := payroll.ParseCycleKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle key (use YYYY-MM)", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	writeJSON(w, http.StatusOK, toStatsDTO(t.CycleStats(key)))
}

// GetCycleCalendar returns the day-bucketed grid for one cycle.
// GET /api/cycles/{key}/calendar
func (h *Handler) GetCycleCalendar(w http.ResponseWriter, r *http.Request) {
	key, err := payroll.ParseCycleKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle key (use YYYY-MM)", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	buckets := t.CalendarDays(key)
	cycle := key.Range()

	days := make([]DayBucketDTO, len(buckets))
	for i, b := range buckets {
		total, _ := b.OvertimeTotal.Float64()
		days[i] = DayBucketDTO{
			Date:          b.Date.String(),
			Weekday:       int(b.Date.Weekday()),
			Records:       toRecordDTOs(b.Records),
			OvertimeTotal: total,
			IsToday:       b.IsToday,
		}
	}

	writeJSON(w, http.StatusOK, CalendarDTO{
		CycleKey:       key.String(),
		RangeStart:     cycle.Start.String(),
		RangeEnd:       cycle.End.String(),
		StartDayOfWeek: int(cycle.Start.Weekday()),
		Days:           days,
	})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// GetSettings returns the full settings document.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	t := h.session(r.Context(), UserID(r.Context()))
	writeJSON(w, http.StatusOK, toSettingsDTO(t.Settings()))
}

// UpdateSettings applies a partial update to the global defaults.
// PATCH /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	updated := t.UpdateSettings(tracker.SettingsPatch{
		BaseSalary:                decimalPtr(req.BaseSalary),
		WorkingDaysPerMonth:       req.WorkingDaysPerMonth,
		WorkingHoursPerDay:        req.WorkingHoursPerDay,
		FoodAllowance:             decimalPtr(req.FoodAllowance),
		DiligenceAllowance:        decimalPtr(req.DiligenceAllowance),
		ShiftAllowance:            decimalPtr(req.ShiftAllowance),
		SpecialIncome:             decimalPtr(req.SpecialIncome),
		ProvidentFundRatePercent:  decimalPtr(req.ProvidentFundRatePercent),
		SocialSecurityEnabled:     req.SocialSecurityEnabled,
		SocialSecurityRatePercent: decimalPtr(req.SocialSecurityRatePercent),
		SocialSecurityMaxAmount:   decimalPtr(req.SocialSecurityMaxAmount),
	})
	writeJSON(w, http.StatusOK, toSettingsDTO(updated))
}

// UpdateCycleOverride applies a partial update to one cycle's bundle,
// creating it from the current defaults on first touch.
// PATCH /api/settings/cycles/{key}
func (h *Handler) UpdateCycleOverride(w http.ResponseWriter, r *http.Request) {
	key, err := payroll.ParseCycleKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle key (use YYYY-MM)", err)
		return
	}

	var req UpdateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	updated := t.UpdateCycleOverride(key, tracker.OverridePatch{
		Salary:                   decimalPtr(req.Salary),
		ClearSalary:              req.ClearSalary,
		WorkingDaysPerMonth:      req.WorkingDaysPerMonth,
		WorkingHoursPerDay:       req.WorkingHoursPerDay,
		FoodAllowance:            decimalPtr(req.FoodAllowance),
		DiligenceAllowance:       decimalPtr(req.DiligenceAllowance),
		ShiftAllowance:           decimalPtr(req.ShiftAllowance),
		SpecialIncome:            decimalPtr(req.SpecialIncome),
		ProvidentFundRatePercent: decimalPtr(req.ProvidentFundRatePercent),
		SocialSecurityEnabled:    req.SocialSecurityEnabled,
	})
	writeJSON(w, http.StatusOK, toOverrideDTO(updated))
}

// SetYearlySalary records a per-year salary override.
// PUT /api/settings/years/{year}
func (h *Handler) SetYearlySalary(w http.ResponseWriter, r *http.Request) {
	year := chi.URLParam(r, "year")
	if !yearPattern.MatchString(year) {
		writeError(w, http.StatusBadRequest, "Invalid year (use 4 digits)", nil)
		return
	}

	var req SetYearlySalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Salary <= 0 {
		writeError(w, http.StatusBadRequest, "Salary must be positive", nil)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	t.SetYearlySalary(year, decimal.NewFromFloat(req.Salary))
	writeJSON(w, http.StatusOK, toSettingsDTO(t.Settings()))
}

// ClearYearlySalary removes a per-year salary override.
// DELETE /api/settings/years/{year}
func (h *Handler) ClearYearlySalary(w http.ResponseWriter, r *http.Request) {
	year := chi.URLParam(r, "year")
	if !yearPattern.MatchString(year) {
		writeError(w, http.StatusBadRequest, "Invalid year (use 4 digits)", nil)
		return
	}

	t := h.session(r.Context(), UserID(r.Context()))
	t.ClearYearlySalary(year)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SYNC HANDLERS
// =============================================================================

// GetSyncStatus returns the persistence indicator.
// GET /api/sync/status
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	t := h.session(r.Context(), UserID(r.Context()))
	writeJSON(w, http.StatusOK, SyncStatusDTO{Status: string(t.SyncStatus())})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
