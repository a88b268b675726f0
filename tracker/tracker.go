/*
Package tracker orchestrates one user's overtime ledger.

PURPOSE:
  The Tracker owns the in-memory truth for a session: the record set
  and the settings document. Mutations apply locally first and always
  succeed; persistence happens behind them through the SyncScheduler.
  All pay math is delegated to the pure payroll package - the Tracker
  adds identity, concurrency safety, memoization, and persistence.

MEMOIZATION:
  Every mutation bumps a version counter. Cycle stats are cached per
  (version, cycle key); an unrelated re-read costs a map hit instead of
  an O(n) rescan, and any mutation implicitly invalidates the whole
  cache through the version bump. This is an optimization only - a
  cache hit and a recompute are always identical.

SEE ALSO:
  - sync.go: Debounced persistence behind mutations
  - payroll: The pure calculation engine
*/
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store"
)

// =============================================================================
// TRACKER
// =============================================================================

type Tracker struct {
	mu       sync.Mutex
	userID   string
	records  []payroll.Record
	settings payroll.Settings

	version    uint64
	statsCache map[payroll.CycleKey]cachedStats

	scheduler *SyncScheduler // may be nil (no persistence)
	log       logrus.FieldLogger
}

type cachedStats struct {
	version uint64
	stats   payroll.Stats
}

// New builds a Tracker seeded from a loaded (or default) state. The scheduler
// may be nil for a purely in-memory session.
func New(userID string, state store.State, scheduler *SyncScheduler, log logrus.FieldLogger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		userID:     userID,
		records:    append([]payroll.Record(nil), state.Records...),
		settings:   state.Settings.Clone(),
		statsCache: make(map[payroll.CycleKey]cachedStats),
		scheduler:  scheduler,
		log:        log.WithField("user", userID),
	}
}

// =============================================================================
// RECORD OPERATIONS
// =============================================================================

// AddRecord validates, prices, and appends a new overtime entry. The amount
// is snapshotted from the settings in force for the entry's pay cycle at
// this moment.
func (t *Tracker) AddRecord(date payroll.Date, hours decimal.Decimal, multiplier payroll.RateMultiplier, note string) (payroll.Record, error) {
	t.mu.Lock()
	record, err := payroll.NewRecord(date, hours, multiplier, note, t.settings)
	if err != nil {
		t.mu.Unlock()
		return payroll.Record{}, err
	}
	// Most recent first, matching display order.
	t.records = append([]payroll.Record{record}, t.records...)
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
	return record, nil
}

// RemoveRecord deletes an entry. Records are immutable; deletion is the only
// way to change history.
func (t *Tracker) RemoveRecord(id payroll.RecordID) error {
	t.mu.Lock()
	index := -1
	for i, r := range t.records {
		if r.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		t.mu.Unlock()
		return payroll.ErrRecordNotFound
	}
	t.records = append(t.records[:index], t.records[index+1:]...)
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
	return nil
}

// Records returns a copy of the full record set, insertion order (most
// recent first).
func (t *Tracker) Records() []payroll.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]payroll.Record(nil), t.records...)
}

// RecordsInCycle returns the records of one pay cycle, most recent date
// first.
func (t *Tracker) RecordsInCycle(key payroll.CycleKey) []payroll.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return payroll.RecordsInCycle(t.records, key)
}

// Preview prices a would-be entry against the current settings without
// creating it. This is the add-form's live computation; stored records keep
// their creation-time snapshots instead.
func (t *Tracker) Preview(date payroll.Date, hours decimal.Decimal, multiplier payroll.RateMultiplier) payroll.Valuation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return payroll.Valuate(date, hours, multiplier, t.settings)
}

// =============================================================================
// AGGREGATION
// =============================================================================

// CycleStats returns the pay breakdown for one cycle, memoized per mutation
// version.
func (t *Tracker) CycleStats(key payroll.CycleKey) payroll.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cached, ok := t.statsCache[key]; ok && cached.version == t.version {
		return cached.stats
	}
	stats := payroll.ComputeStats(key, t.records, t.settings)
	t.statsCache[key] = cachedStats{version: t.version, stats: stats}
	return stats
}

// AllCycleSummaries returns one history line per cycle ever recorded, most
// recent first.
func (t *Tracker) AllCycleSummaries() []payroll.CycleSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return payroll.AllCycleSummaries(t.records)
}

// CalendarDays returns the day buckets for a cycle. IsToday is recomputed
// against the current local date on every call.
func (t *Tracker) CalendarDays(key payroll.CycleKey) []payroll.DayBucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return payroll.CalendarDays(key, t.records, payroll.Today())
}

// =============================================================================
// SETTINGS OPERATIONS
// =============================================================================

// SettingsPatch is a partial settings update; nil fields are untouched.
type SettingsPatch struct {
	BaseSalary          *decimal.Decimal
	WorkingDaysPerMonth *int
	WorkingHoursPerDay  *int

	FoodAllowance      *decimal.Decimal
	DiligenceAllowance *decimal.Decimal
	ShiftAllowance     *decimal.Decimal
	SpecialIncome      *decimal.Decimal

	ProvidentFundRatePercent *decimal.Decimal

	SocialSecurityEnabled     *bool
	SocialSecurityRatePercent *decimal.Decimal
	SocialSecurityMaxAmount   *decimal.Decimal
}

// Settings returns a copy of the current settings document.
func (t *Tracker) Settings() payroll.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings.Clone()
}

// UpdateSettings applies a partial update to the global defaults.
func (t *Tracker) UpdateSettings(patch SettingsPatch) payroll.Settings {
	t.mu.Lock()
	if patch.BaseSalary != nil {
		t.settings.BaseSalary = *patch.BaseSalary
	}
	if patch.WorkingDaysPerMonth != nil {
		t.settings.WorkingDaysPerMonth = *patch.WorkingDaysPerMonth
	}
	if patch.WorkingHoursPerDay != nil {
		t.settings.WorkingHoursPerDay = *patch.WorkingHoursPerDay
	}
	if patch.FoodAllowance != nil {
		t.settings.FoodAllowance = *patch.FoodAllowance
	}
	if patch.DiligenceAllowance != nil {
		t.settings.DiligenceAllowance = *patch.DiligenceAllowance
	}
	if patch.ShiftAllowance != nil {
		t.settings.ShiftAllowance = *patch.ShiftAllowance
	}
	if patch.SpecialIncome != nil {
		t.settings.SpecialIncome = *patch.SpecialIncome
	}
	if patch.ProvidentFundRatePercent != nil {
		t.settings.ProvidentFundRatePercent = *patch.ProvidentFundRatePercent
	}
	if patch.SocialSecurityEnabled != nil {
		t.settings.SocialSecurityEnabled = *patch.SocialSecurityEnabled
	}
	if patch.SocialSecurityRatePercent != nil {
		t.settings.SocialSecurityRatePercent = *patch.SocialSecurityRatePercent
	}
	if patch.SocialSecurityMaxAmount != nil {
		t.settings.SocialSecurityMaxAmount = *patch.SocialSecurityMaxAmount
	}
	updated := t.settings.Clone()
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
	return updated
}

// OverridePatch is a partial update to one cycle's welfare bundle; nil fields
// are untouched. ClearSalary removes a salary override outright.
type OverridePatch struct {
	Salary      *decimal.Decimal
	ClearSalary bool

	WorkingDaysPerMonth *int
	WorkingHoursPerDay  *int

	FoodAllowance      *decimal.Decimal
	DiligenceAllowance *decimal.Decimal
	ShiftAllowance     *decimal.Decimal
	SpecialIncome      *decimal.Decimal

	ProvidentFundRatePercent *decimal.Decimal
	SocialSecurityEnabled    *bool
}

// UpdateCycleOverride applies a partial update to one cycle's bundle. The
// bundle is created lazily on first touch, pre-seeded from the current
// global defaults.
func (t *Tracker) UpdateCycleOverride(key payroll.CycleKey, patch OverridePatch) payroll.CycleOverride {
	t.mu.Lock()
	override := t.settings.EnsureCycleOverride(key)
	if patch.ClearSalary {
		override.Salary = nil
	} else if patch.Salary != nil {
		salary := *patch.Salary
		override.Salary = &salary
	}
	if patch.WorkingDaysPerMonth != nil {
		override.WorkingDaysPerMonth = *patch.WorkingDaysPerMonth
	}
	if patch.WorkingHoursPerDay != nil {
		override.WorkingHoursPerDay = *patch.WorkingHoursPerDay
	}
	if patch.FoodAllowance != nil {
		override.FoodAllowance = *patch.FoodAllowance
	}
	if patch.DiligenceAllowance != nil {
		override.DiligenceAllowance = *patch.DiligenceAllowance
	}
	if patch.ShiftAllowance != nil {
		override.ShiftAllowance = *patch.ShiftAllowance
	}
	if patch.SpecialIncome != nil {
		override.SpecialIncome = *patch.SpecialIncome
	}
	if patch.ProvidentFundRatePercent != nil {
		override.ProvidentFundRatePercent = *patch.ProvidentFundRatePercent
	}
	if patch.SocialSecurityEnabled != nil {
		override.SocialSecurityEnabled = *patch.SocialSecurityEnabled
	}
	t.settings.SetCycleOverride(key, *override)
	updated := *override
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
	return updated
}

// SetYearlySalary records a per-year salary override.
func (t *Tracker) SetYearlySalary(year string, salary decimal.Decimal) {
	t.mu.Lock()
	if t.settings.SalaryByYear == nil {
		t.settings.SalaryByYear = make(map[string]decimal.Decimal)
	}
	t.settings.SalaryByYear[year] = salary
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
}

// ClearYearlySalary removes a per-year salary override.
func (t *Tracker) ClearYearlySalary(year string) {
	t.mu.Lock()
	delete(t.settings.SalaryByYear, year)
	version, snapshot := t.mutatedLocked()
	t.mu.Unlock()

	t.persist(version, snapshot)
}

// =============================================================================
// PERSISTENCE PLUMBING
// =============================================================================

// mutatedLocked bumps the version and snapshots state for persistence.
// Callers hold t.mu. The version travels with the snapshot so the scheduler
// can tell which of two racing handoffs is fresher.
func (t *Tracker) mutatedLocked() (uint64, store.State) {
	t.version++
	return t.version, store.State{
		Records:  append([]payroll.Record(nil), t.records...),
		Settings: t.settings.Clone(),
		SavedAt:  time.Now(),
	}
}

// persist hands a snapshot to the scheduler. Called outside t.mu so storage
// I/O never blocks another mutation; two mutations can therefore reach the
// scheduler out of order, and the version lets it discard the stale one.
func (t *Tracker) persist(version uint64, snapshot store.State) {
	if t.scheduler == nil {
		return
	}
	t.scheduler.Schedule(version, snapshot)
}

// Snapshot returns the current persistable state.
func (t *Tracker) Snapshot() store.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return store.State{
		Records:  append([]payroll.Record(nil), t.records...),
		Settings: t.settings.Clone(),
		SavedAt:  time.Now(),
	}
}

// SyncStatus reports the scheduler's indicator; a tracker without persistence
// is always synced.
func (t *Tracker) SyncStatus() SyncStatus {
	if t.scheduler == nil {
		return StatusSynced
	}
	return t.scheduler.Status()
}

// Flush pushes any pending state immediately. Used on shutdown.
func (t *Tracker) Flush(ctx context.Context) error {
	if t.scheduler == nil {
		return nil
	}
	return t.scheduler.Flush(ctx)
}

// Version returns the mutation counter (exposed for memoization tests).
func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}
