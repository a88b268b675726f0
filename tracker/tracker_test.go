package tracker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store"
	"github.com/warp/payroll-engine/tracker"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func newTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	state := store.State{Settings: payroll.DefaultSettings()}
	return tracker.New("u@example.com", state, nil, nil)
}

// =============================================================================
// RECORD LIFECYCLE
// =============================================================================

func TestTracker_AddAndRemoveRecord(t *testing.T) {
	tr := newTracker(t)

	// GIVEN: A fresh session
	// WHEN: Two entries are added
	first, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(2), payroll.RateTimeAndAHalf, "release night")
	require.NoError(t, err)
	second, err := tr.AddRecord(payroll.NewDate(2024, time.February, 3), dec(1), payroll.RateRegular, "")
	require.NoError(t, err)

	// THEN: Both are listed, most recent insertion first
	records := tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	// WHEN: One is removed
	require.NoError(t, tr.RemoveRecord(first.ID))
	records = tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)

	// THEN: Removing it again reports not-found
	assert.ErrorIs(t, tr.RemoveRecord(first.ID), payroll.ErrRecordNotFound)
}

func TestTracker_AddRecordValidates(t *testing.T) {
	tr := newTracker(t)

	_, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(0), payroll.RateRegular, "")
	assert.ErrorIs(t, err, payroll.ErrInvalidHours)

	_, err = tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(1), payroll.RateMultiplier("4"), "")
	assert.ErrorIs(t, err, payroll.ErrUnknownMultiplier)

	assert.Empty(t, tr.Records(), "a rejected entry must not be stored")
}

func TestTracker_StoredAmountSurvivesSettingsChange(t *testing.T) {
	tr := newTracker(t)

	// GIVEN: An entry priced at the default salary
	// 20000 / (30*8) = 83.33/h, 2h * 1.5 = 250
	record, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(2), payroll.RateTimeAndAHalf, "")
	require.NoError(t, err)
	assert.True(t, record.TotalAmount.Round(2).Equal(dec(250)))

	// WHEN: The salary changes afterwards
	tr.UpdateSettings(tracker.SettingsPatch{BaseSalary: decPtr(40000)})

	// THEN: The stored entry keeps its creation-time amount
	stored := tr.Records()[0]
	assert.True(t, stored.TotalAmount.Equal(record.TotalAmount))
	stats := tr.CycleStats("2024-02")
	assert.True(t, stats.TotalOvertimeAmount.Equal(record.TotalAmount))

	// ... while a preview of the same entry reprices live
	preview := tr.Preview(payroll.NewDate(2024, time.February, 1), dec(2), payroll.RateTimeAndAHalf)
	assert.True(t, preview.Total.Round(2).Equal(dec(500)))
}

// =============================================================================
// MEMOIZATION
// =============================================================================

func TestTracker_CycleStatsMemoized(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(2), payroll.RateRegular, "")
	require.NoError(t, err)

	version := tr.Version()
	first := tr.CycleStats("2024-02")
	second := tr.CycleStats("2024-02")
	assert.Equal(t, version, tr.Version(), "reads must not bump the version")
	assert.Equal(t, first, second)

	// A mutation invalidates the cache; the fresh numbers reflect it.
	_, err = tr.AddRecord(payroll.NewDate(2024, time.February, 2), dec(3), payroll.RateRegular, "")
	require.NoError(t, err)
	assert.Greater(t, tr.Version(), version)
	third := tr.CycleStats("2024-02")
	assert.True(t, third.TotalHours.Equal(dec(5)), "got %s", third.TotalHours)
}

// =============================================================================
// SETTINGS AND OVERRIDES
// =============================================================================

func TestTracker_UpdateSettingsPartial(t *testing.T) {
	tr := newTracker(t)

	enabled := false
	updated := tr.UpdateSettings(tracker.SettingsPatch{
		BaseSalary:            decPtr(32000),
		FoodAllowance:         decPtr(600),
		SocialSecurityEnabled: &enabled,
	})

	assert.True(t, updated.BaseSalary.Equal(dec(32000)))
	assert.True(t, updated.FoodAllowance.Equal(dec(600)))
	assert.False(t, updated.SocialSecurityEnabled)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, updated.WorkingDaysPerMonth)
	assert.True(t, updated.SocialSecurityRatePercent.Equal(dec(5)))
}

func TestTracker_CycleOverrideSeededFromCurrentDefaults(t *testing.T) {
	tr := newTracker(t)
	tr.UpdateSettings(tracker.SettingsPatch{FoodAllowance: decPtr(700)})

	// First touch of a cycle freezes today's defaults into its bundle.
	override := tr.UpdateCycleOverride("2024-02", tracker.OverridePatch{Salary: decPtr(25000)})
	require.NotNil(t, override.Salary)
	assert.True(t, override.Salary.Equal(dec(25000)))
	assert.True(t, override.FoodAllowance.Equal(dec(700)))

	// Later default edits no longer reach the frozen bundle.
	tr.UpdateSettings(tracker.SettingsPatch{FoodAllowance: decPtr(0)})
	stats := tr.CycleStats("2024-02")
	assert.True(t, stats.Salary.Equal(dec(25000)))
	assert.True(t, stats.Welfare.FoodAllowance.Equal(dec(700)))

	// A neighboring cycle still follows the live defaults.
	neighbor := tr.CycleStats("2024-03")
	assert.True(t, neighbor.Salary.Equal(dec(20000)))
	assert.True(t, neighbor.Welfare.FoodAllowance.IsZero())
}

func TestTracker_ClearSalaryOverrideFallsBack(t *testing.T) {
	tr := newTracker(t)
	tr.SetYearlySalary("2024", dec(22000))
	tr.UpdateCycleOverride("2024-02", tracker.OverridePatch{Salary: decPtr(25000)})

	assert.True(t, tr.CycleStats("2024-02").Salary.Equal(dec(25000)))

	// Clearing the cycle override exposes the yearly salary again.
	tr.UpdateCycleOverride("2024-02", tracker.OverridePatch{ClearSalary: true})
	assert.True(t, tr.CycleStats("2024-02").Salary.Equal(dec(22000)))

	tr.ClearYearlySalary("2024")
	assert.True(t, tr.CycleStats("2024-02").Salary.Equal(dec(20000)))
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestTracker_MutationsReachLocalCacheImmediately(t *testing.T) {
	local := store.NewMemory()
	scheduler := tracker.NewSyncScheduler(local, nil, "u@example.com", tracker.SyncOptions{}, nil)
	defer scheduler.Stop()

	state := store.State{Settings: payroll.DefaultSettings()}
	tr := tracker.New("u@example.com", state, scheduler, nil)

	record, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(1), payroll.RateRegular, "")
	require.NoError(t, err)

	// The local write is synchronous; no debounce wait needed.
	loaded, err := local.Load(context.Background(), "u@example.com")
	require.NoError(t, err)
	require.Len(t, loaded.Records, 1)
	assert.Equal(t, record.ID, loaded.Records[0].ID)

	tr.UpdateSettings(tracker.SettingsPatch{BaseSalary: decPtr(31000)})
	loaded, err = local.Load(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.True(t, loaded.Settings.BaseSalary.Equal(dec(31000)))
}

func TestTracker_ConcurrentMutationsPersistFreshestSnapshot(t *testing.T) {
	local := store.NewMemory()
	scheduler := tracker.NewSyncScheduler(local, nil, "u@example.com", tracker.SyncOptions{}, nil)
	defer scheduler.Stop()

	state := store.State{Settings: payroll.DefaultSettings()}
	tr := tracker.New("u@example.com", state, scheduler, nil)

	// Mutations hand their snapshots to the scheduler outside the tracker
	// lock, so they can arrive in any order. Whatever that order, the cache
	// must end on the snapshot holding every committed record.
	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.AddRecord(payroll.NewDate(2024, time.February, 1), dec(1), payroll.RateRegular, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := local.Load(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Len(t, loaded.Records, workers)
	assert.Len(t, tr.Records(), workers)
}

func TestTracker_WithoutSchedulerReportsSynced(t *testing.T) {
	tr := newTracker(t)
	assert.Equal(t, tracker.StatusSynced, tr.SyncStatus())
	assert.NoError(t, tr.Flush(context.Background()))
}
