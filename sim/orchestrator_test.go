package sim_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-sim/hazard"
	"github.com/warp/workforce-sim/sim"
	"github.com/warp/workforce-sim/workforce"
	"github.com/warp/workforce-sim/workforce/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testConfig(startYear, endYear, headcount int) sim.Config {
	return sim.Config{
		StartYear:              startYear,
		EndYear:                endYear,
		StartingHeadcount:      headcount,
		TargetGrowthRate:       0.03,
		TotalTerminationRate:   0.12,
		NewHireTerminationRate: 0.25,
		ReconcileTolerance:     0,
		Hazard: hazard.Config{
			Seed: 42,
			Events: map[hazard.EventKind]hazard.EventConfig{
				hazard.KindTermination: {
					BaseRate:          0.12,
					TenureMultipliers: map[string]float64{"<1": 1.5, "10+": 0.6},
				},
				hazard.KindPromotion:  {BaseRate: 0.10},
				hazard.KindMeritRaise: {BaseRate: 0.80},
			},
		},
	}
}

func testOrchestrator(t *testing.T, cfg sim.Config, st workforce.Store) *sim.Orchestrator {
	t.Helper()
	baseline := workforce.SyntheticBaseline(cfg.StartYear, cfg.StartingHeadcount, workforce.NewHireProfile{})
	orch, err := sim.New(cfg, st, sim.StoreTransformer{Store: st}, baseline)
	require.NoError(t, err)
	return orch
}

// =============================================================================
// MULTI-YEAR RUNS
// =============================================================================

func TestRun_MultiYearContinuity(t *testing.T) {
	// GIVEN: a three-year horizon from a 100-person seed workforce
	// WHEN: running end to end with zero reconcile tolerance
	// THEN: every year lands exactly, and year N+1 starts from year N's
	//       ending actives

	ctx := context.Background()
	st := store.NewMemory()
	cfg := testConfig(2025, 2027, 100)
	orch := testOrchestrator(t, cfg, st)

	result, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)
	require.Len(t, result.Years, 3)

	prevEnding := 100
	for _, yr := range result.Years {
		assert.Equal(t, prevEnding, yr.Requirement.StartingHeadcount,
			"year %d must start from the prior year's ending actives", yr.Year)
		assert.Equal(t, prevEnding+yr.Variance.Actual, yr.EndingActive)
		assert.False(t, yr.Variance.Flagged, "year %d variance flagged at zero tolerance", yr.Year)

		count, err := st.CountEvents(ctx, yr.Year)
		require.NoError(t, err)
		assert.Equal(t, yr.EventRows, count)

		snapshot, err := st.SnapshotForYear(ctx, yr.Year)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, yr.EndingActive, snapshot.ActiveCount())

		prevEnding = yr.EndingActive
	}
}

func TestRun_SecondRunExecutesNothing(t *testing.T) {
	// GIVEN: a completed run
	// WHEN: running the same orchestrator again
	// THEN: every step is skipped and the store is untouched

	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2026, 80), st)

	first, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)
	countBefore, err := st.CountEvents(ctx, 2025)
	require.NoError(t, err)

	second, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)

	for _, yr := range second.Years {
		for _, rec := range yr.Steps {
			assert.True(t, rec.Skipped, "year %d step %s re-executed", yr.Year, rec.Step)
		}
	}
	assert.Equal(t, first.Years[1].EndingActive, second.Years[1].EndingActive)

	countAfter, err := st.CountEvents(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter)
}

// =============================================================================
// RESUME
// =============================================================================

func TestRun_ResumeFromSkipsCompletedYears(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2027, 60), st)

	_, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)

	resumed, err := orch.Run(ctx, sim.Options{ResumeFrom: 2027})
	require.NoError(t, err)
	require.Len(t, resumed.Years, 1)
	assert.Equal(t, 2027, resumed.Years[0].Year)
}

func TestRun_ResumeContinuesHorizonAcrossOrchestrators(t *testing.T) {
	// GIVEN: 2025-2027 completed by one orchestrator
	// WHEN: a fresh orchestrator over the same store runs 2025-2029 with
	//       resume from 2028
	// THEN: the completed years are verified from their persisted snapshots
	//       and left untouched, and 2028 picks up from 2027's ending state

	ctx := context.Background()
	st := store.NewMemory()

	first := testOrchestrator(t, testConfig(2025, 2027, 100), st)
	firstResult, err := first.Run(ctx, sim.Options{})
	require.NoError(t, err)
	before, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)

	second := testOrchestrator(t, testConfig(2025, 2029, 100), st)
	resumed, err := second.Run(ctx, sim.Options{ResumeFrom: 2028})
	require.NoError(t, err)

	require.Len(t, resumed.Years, 2)
	assert.Equal(t, 2028, resumed.Years[0].Year)
	assert.Equal(t, 2029, resumed.Years[1].Year)
	assert.Equal(t, firstResult.Years[2].EndingActive, resumed.Years[0].Requirement.StartingHeadcount,
		"2028 must baseline on 2027's ending actives")

	after, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	require.Equal(t, len(before.Rows), len(after.Rows))
	for i := range before.Rows {
		assert.Equal(t, before.Rows[i].EmployeeID, after.Rows[i].EmployeeID)
		assert.True(t, before.Rows[i].ProratedComp.Equal(after.Rows[i].ProratedComp))
	}
}

func TestRun_ResumeFromRefusesIncompletePriorYears(t *testing.T) {
	// GIVEN: a fresh orchestrator with nothing complete
	// WHEN: resuming from 2026
	// THEN: refused, because 2025 never ran

	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2026, 60), st)

	_, err := orch.Run(ctx, sim.Options{ResumeFrom: 2026})
	require.Error(t, err)
	assert.ErrorIs(t, err, workforce.ErrStepSequence)
}

func TestRun_ValidateOnlyExecutesNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2026, 60), st)

	result, err := orch.Run(ctx, sim.Options{ValidateOnly: true})
	require.NoError(t, err)
	assert.Empty(t, result.Years)

	count, err := st.CountEvents(ctx, 2025)
	require.NoError(t, err)
	assert.Zero(t, count, "validate-only must not generate events")
}

// =============================================================================
// ROLLBACK AND RE-RUN
// =============================================================================

func TestRollbackYear_RerunReproducesIdenticalResults(t *testing.T) {
	// GIVEN: a completed 2025-2027 run
	// WHEN: rolling back 2026 (and the dependent 2027) and re-running
	// THEN: the regenerated years are identical to the originals

	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2027, 100), st)

	first, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)
	original, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)

	affected, err := orch.RollbackYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, []int{2027}, affected)
	for _, y := range affected {
		_, err := orch.RollbackYear(ctx, y)
		require.NoError(t, err)
	}

	gone, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Nil(t, gone, "rollback must purge the year's snapshot")

	second, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)

	regenerated, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	require.NotNil(t, regenerated)
	require.Equal(t, len(original.Rows), len(regenerated.Rows))
	for i := range original.Rows {
		a, b := original.Rows[i], regenerated.Rows[i]
		assert.Equal(t, a.EmployeeID, b.EmployeeID)
		assert.Equal(t, a.DetailedStatus, b.DetailedStatus)
		assert.True(t, a.ProratedComp.Equal(b.ProratedComp))
	}
	assert.Equal(t, first.Years[2].EndingActive, second.Years[2].EndingActive)
}

func TestRollbackYear_LeavesEarlierYearsIntact(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	orch := testOrchestrator(t, testConfig(2025, 2026, 60), st)

	_, err := orch.Run(ctx, sim.Options{})
	require.NoError(t, err)

	_, err = orch.RollbackYear(ctx, 2026)
	require.NoError(t, err)

	snapshot, err := st.SnapshotForYear(ctx, 2025)
	require.NoError(t, err)
	assert.NotNil(t, snapshot)
	assert.True(t, orch.Checklist().IsComplete(2025, sim.StepValidationMetrics))
}

// lossyTransformer drops one experienced termination on persist, leaving
// the store one event short of the generated set.
type lossyTransformer struct {
	sim.StoreTransformer
}

func (t lossyTransformer) PersistEvents(ctx context.Context, year int, events []workforce.Event) (int, error) {
	kept := make([]workforce.Event, 0, len(events))
	dropped := false
	for _, ev := range events {
		if !dropped && ev.Type == workforce.EventTermination && ev.TerminationReason == "experienced_attrition" {
			dropped = true
			continue
		}
		kept = append(kept, ev)
	}
	return t.StoreTransformer.PersistEvents(ctx, year, kept)
}

func TestRun_FailedValidationFailsAgainOnResume(t *testing.T) {
	// GIVEN: persistence that loses a termination, so the reconciled year
	//        lands one head high and validation fails fatally
	// WHEN: running again on the same orchestrator with nothing changed
	// THEN: validation must fail again, not wave the year through off
	//       zeroed in-memory records

	ctx := context.Background()
	st := store.NewMemory()
	cfg := testConfig(2025, 2025, 100)
	cfg.VarianceFatal = true
	baseline := workforce.SyntheticBaseline(cfg.StartYear, cfg.StartingHeadcount, workforce.NewHireProfile{})
	orch, err := sim.New(cfg, st, lossyTransformer{sim.StoreTransformer{Store: st}}, baseline)
	require.NoError(t, err)

	_, err = orch.Run(ctx, sim.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, workforce.ErrVarianceExceeded)
	assert.Contains(t, err.Error(), "VALIDATION_METRICS")

	_, err = orch.Run(ctx, sim.Options{})
	require.Error(t, err, "a resumed validation must re-derive its checks from the store")
	assert.ErrorIs(t, err, workforce.ErrVarianceExceeded)
}

// =============================================================================
// GUARDS
// =============================================================================

func TestRun_FailsWithoutSeedBaselineOrPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	cfg := testConfig(2025, 2025, 60)

	orch, err := sim.New(cfg, st, sim.StoreTransformer{Store: st}, nil)
	require.NoError(t, err)

	_, err = orch.Run(ctx, sim.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, workforce.ErrMissingPriorYear)
	assert.Contains(t, err.Error(), "year 2025")
	assert.Contains(t, err.Error(), "WORKFORCE_BASELINE")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(2025, 2026, 60)
	cfg.TargetGrowthRate = 1.5

	_, err := sim.New(cfg, store.NewMemory(), sim.StoreTransformer{Store: store.NewMemory()}, nil)
	require.Error(t, err)
	var confErr *workforce.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}
