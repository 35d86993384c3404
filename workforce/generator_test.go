package workforce_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-sim/hazard"
	"github.com/warp/workforce-sim/workforce"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testEngine(t *testing.T, seed int64) *hazard.Engine {
	t.Helper()
	engine, err := hazard.New(hazard.Config{
		Seed: seed,
		Events: map[hazard.EventKind]hazard.EventConfig{
			hazard.KindTermination: {
				BaseRate:          0.12,
				LevelDampener:     0.05,
				TenureMultipliers: map[string]float64{"<1": 1.5, "1-2": 1.2, "10+": 0.6},
			},
			hazard.KindPromotion:  {BaseRate: 0.10},
			hazard.KindMeritRaise: {BaseRate: 0.80},
		},
	})
	require.NoError(t, err)
	return engine
}

func testGenerator(t *testing.T, seed int64) *workforce.Generator {
	t.Helper()
	return workforce.NewGenerator(testEngine(t, seed), workforce.GeneratorConfig{})
}

func solvedRequirement(t *testing.T, year, starting int) workforce.Requirement {
	t.Helper()
	req, err := workforce.Solve(year, starting, 0.03, 0.12, 0.25)
	require.NoError(t, err)
	return req
}

func countByType(events []workforce.Event) map[workforce.EventType]int {
	counts := make(map[workforce.EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}

// =============================================================================
// EXACT COUNTS
// =============================================================================

func TestGenerate_EmitsExactRequirementCounts(t *testing.T) {
	// GIVEN: the solved requirement for a 200-person population
	// WHEN: generating the year's events
	// THEN: termination and hire counts match the requirement exactly,
	//       not approximately

	year := 2026
	baseline := workforce.SyntheticBaseline(year, 200, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 200)

	events, report, err := testGenerator(t, 42).Generate(year, req, baseline)
	require.NoError(t, err)

	counts := countByType(events)
	assert.Equal(t, req.GrossHires, counts[workforce.EventHire])
	assert.Equal(t, req.ExperiencedTerminations+req.ExpectedNewHireLosses,
		counts[workforce.EventTermination])

	assert.Equal(t, req.ExperiencedTerminations, report.ExperiencedTerminations)
	assert.Equal(t, req.GrossHires, report.Hires)
	assert.Equal(t, req.ExpectedNewHireLosses, report.NewHireTerminations)
	assert.Equal(t, req.ExpectedNetChange, report.ProjectedNetChange)
	assert.True(t, report.WithinTolerance)
}

func TestGenerate_AtMostOneTerminationPerEmployee(t *testing.T) {
	year := 2026
	baseline := workforce.SyntheticBaseline(year, 150, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 150)

	events, _, err := testGenerator(t, 7).Generate(year, req, baseline)
	require.NoError(t, err)

	seen := make(map[workforce.EmployeeID]bool)
	for _, ev := range events {
		if ev.Type != workforce.EventTermination {
			continue
		}
		assert.False(t, seen[ev.EmployeeID], "employee %s terminated twice", ev.EmployeeID)
		seen[ev.EmployeeID] = true
	}
}

func TestGenerate_NewHireTerminationsOnlyHitThisYearsHires(t *testing.T) {
	year := 2026
	baseline := workforce.SyntheticBaseline(year, 100, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 100)

	events, _, err := testGenerator(t, 11).Generate(year, req, baseline)
	require.NoError(t, err)

	hired := make(map[workforce.EmployeeID]time.Time)
	for _, ev := range events {
		if ev.Type == workforce.EventHire {
			hired[ev.EmployeeID] = ev.EffectiveDate
		}
	}
	for _, ev := range events {
		if ev.Type != workforce.EventTermination || ev.TerminationReason != "new_hire_attrition" {
			continue
		}
		hireDate, isHire := hired[ev.EmployeeID]
		require.True(t, isHire, "new-hire attrition for %s, who was not hired this year", ev.EmployeeID)
		assert.True(t, ev.EffectiveDate.After(hireDate),
			"termination on %s not after hire on %s", ev.EffectiveDate, hireDate)
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestGenerate_SameSeedSameEvents(t *testing.T) {
	// GIVEN: two independently constructed generators with the same seed
	// WHEN: generating the same year twice
	// THEN: the event sets are identical, element for element

	year := 2026
	baseline := workforce.SyntheticBaseline(year, 120, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 120)

	first, _, err := testGenerator(t, 99).Generate(year, req, baseline)
	require.NoError(t, err)
	second, _, err := testGenerator(t, 99).Generate(year, req, baseline)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
		assert.True(t, first[i].NewCompensation.Equal(second[i].NewCompensation))
	}
}

func TestGenerate_DifferentSeedDifferentSelection(t *testing.T) {
	year := 2026
	baseline := workforce.SyntheticBaseline(year, 120, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 120)

	first, _, err := testGenerator(t, 1).Generate(year, req, baseline)
	require.NoError(t, err)
	second, _, err := testGenerator(t, 2).Generate(year, req, baseline)
	require.NoError(t, err)

	firstKeys := make(map[string]bool, len(first))
	for _, ev := range first {
		firstKeys[ev.Key()] = true
	}
	same := true
	for _, ev := range second {
		if !firstKeys[ev.Key()] {
			same = false
			break
		}
	}
	assert.False(t, same && len(first) == len(second), "seeds 1 and 2 produced identical event sets")
}

func TestGenerate_EventsInTotalOrder(t *testing.T) {
	year := 2026
	baseline := workforce.SyntheticBaseline(year, 100, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 100)

	events, _, err := testGenerator(t, 5).Generate(year, req, baseline)
	require.NoError(t, err)

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		assert.False(t, cur.EffectiveDate.Before(prev.EffectiveDate),
			"event %d dated before event %d", i, i-1)
	}
	for _, ev := range events {
		assert.Equal(t, year, ev.EffectiveDate.Year())
		assert.Equal(t, year, ev.SimulationYear)
	}
}

// =============================================================================
// GUARDS
// =============================================================================

func TestGenerate_RejectsStaleBaseline(t *testing.T) {
	// GIVEN: a requirement solved for 100 but a 90-person baseline
	// WHEN: generating
	// THEN: generation refuses rather than sampling the wrong population

	year := 2026
	baseline := workforce.SyntheticBaseline(year, 90, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 100)

	_, _, err := testGenerator(t, 3).Generate(year, req, baseline)
	require.Error(t, err)
	var integrity *workforce.DataIntegrityError
	assert.ErrorAs(t, err, &integrity)
}

func TestGenerate_VarianceFatalPromotesMismatchToError(t *testing.T) {
	// An inconsistent requirement (net change that the counts cannot
	// produce) trips the tolerance check.
	year := 2026
	baseline := workforce.SyntheticBaseline(year, 50, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 50)
	req.ExpectedNetChange += 40

	gen := workforce.NewGenerator(testEngine(t, 8), workforce.GeneratorConfig{VarianceFatal: true})
	_, _, err := gen.Generate(year, req, baseline)
	require.Error(t, err)
	assert.ErrorIs(t, err, workforce.ErrVarianceExceeded)
	var exceeded *workforce.VarianceExceededError
	assert.ErrorAs(t, err, &exceeded)
}

func TestGenerate_GeneratedSetReconcilesToRequirement(t *testing.T) {
	// GIVEN: a generated event set
	// WHEN: reconciled against the same baseline
	// THEN: the ending population lands exactly on the expected net change

	year := 2026
	baseline := workforce.SyntheticBaseline(year, 200, workforce.NewHireProfile{})
	req := solvedRequirement(t, year, 200)

	events, _, err := testGenerator(t, 42).Generate(year, req, baseline)
	require.NoError(t, err)

	snapshot, variance, err := workforce.Reconcile(year, baseline, events, req, 0)
	require.NoError(t, err)
	assert.Equal(t, req.ExpectedNetChange, variance.Actual)
	assert.False(t, variance.Flagged)
	assert.Equal(t, len(baseline)+req.ExpectedNetChange, snapshot.ActiveCount())
}
