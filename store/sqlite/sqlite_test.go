package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-sim/store/sqlite"
	"github.com/warp/workforce-sim/workforce"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleEvents(year int) []workforce.Event {
	return []workforce.Event{
		{
			EmployeeID:      "NH-2026-0001",
			Type:            workforce.EventHire,
			SimulationYear:  year,
			EffectiveDate:   workforce.Date(year, time.February, 1),
			BirthDate:       workforce.Date(1995, time.May, 15),
			NewLevel:        2,
			NewCompensation: decimal.NewFromInt(75000),
		},
		{
			EmployeeID:      "EMP-00001",
			Type:            workforce.EventMeritRaise,
			SimulationYear:  year,
			EffectiveDate:   workforce.Date(year, time.July, 15),
			NewCompensation: decimal.RequireFromString("83200.50"),
		},
		{
			EmployeeID:        "EMP-00002",
			Type:              workforce.EventTermination,
			SimulationYear:    year,
			EffectiveDate:     workforce.Date(year, time.October, 3),
			TerminationReason: "experienced_attrition",
		},
	}
}

func sampleSnapshot(year int) *workforce.Snapshot {
	term := workforce.Date(year, time.October, 3)
	return &workforce.Snapshot{
		Year: year,
		Rows: []workforce.SnapshotRow{
			{
				EmployeeID:       "EMP-00001",
				SimulationYear:   year,
				Status:           workforce.StatusActive,
				DetailedStatus:   workforce.StatusContinuousActive,
				BirthDate:        workforce.Date(1990, time.March, 2),
				HireDate:         workforce.Date(2019, time.April, 1),
				Level:            3,
				CompensationRate: decimal.RequireFromString("83200.50"),
				ProratedComp:     decimal.RequireFromString("81477.32"),
			},
			{
				EmployeeID:       "EMP-00002",
				SimulationYear:   year,
				Status:           workforce.StatusTerminated,
				DetailedStatus:   workforce.StatusExperiencedTermination,
				BirthDate:        workforce.Date(1985, time.August, 20),
				HireDate:         workforce.Date(2015, time.January, 6),
				TerminationDate:  &term,
				Level:            2,
				CompensationRate: decimal.NewFromInt(90000),
				ProratedComp:     decimal.RequireFromString("68437.10"),
			},
		},
	}
}

// =============================================================================
// EVENTS
// =============================================================================

func TestAppendEvents_RoundTrip(t *testing.T) {
	// GIVEN: a batch of mixed-type events
	// WHEN: appending and reading the year back
	// THEN: every field survives, in deterministic date order

	ctx := context.Background()
	st := newTestStore(t)

	rows, err := st.AppendEvents(ctx, sampleEvents(2026))
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	events, err := st.EventsForYear(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Ordered by effective date.
	assert.Equal(t, workforce.EventHire, events[0].Type)
	assert.Equal(t, workforce.EventMeritRaise, events[1].Type)
	assert.Equal(t, workforce.EventTermination, events[2].Type)

	hire := events[0]
	assert.Equal(t, workforce.EmployeeID("NH-2026-0001"), hire.EmployeeID)
	assert.Equal(t, workforce.Date(2026, time.February, 1), hire.EffectiveDate)
	assert.Equal(t, workforce.Date(1995, time.May, 15), hire.BirthDate)
	assert.Equal(t, 2, hire.NewLevel)
	assert.True(t, hire.NewCompensation.Equal(decimal.NewFromInt(75000)))

	assert.Equal(t, "83200.5", events[1].NewCompensation.String())
	assert.Equal(t, "experienced_attrition", events[2].TerminationReason)
	assert.True(t, events[2].BirthDate.IsZero(), "termination carries no birth date")
}

func TestAppendEvents_DuplicateKeyFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.AppendEvents(ctx, sampleEvents(2026))
	require.NoError(t, err)

	// Re-appending the same batch must fail and persist nothing new.
	_, err = st.AppendEvents(ctx, sampleEvents(2026))
	require.Error(t, err)
	var integrity *workforce.DataIntegrityError
	assert.ErrorAs(t, err, &integrity)

	count, err := st.CountEvents(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCountEvents_ScopedToYear(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.AppendEvents(ctx, sampleEvents(2026))
	require.NoError(t, err)
	_, err = st.AppendEvents(ctx, sampleEvents(2027))
	require.NoError(t, err)

	count, err := st.CountEvents(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = st.CountEvents(ctx, 2024)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	rows, err := st.SaveSnapshot(ctx, sampleSnapshot(2026))
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	got, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Rows, 2)

	active := got.Rows[0]
	assert.Equal(t, workforce.EmployeeID("EMP-00001"), active.EmployeeID)
	assert.Equal(t, workforce.StatusContinuousActive, active.DetailedStatus)
	assert.Nil(t, active.TerminationDate)
	assert.Equal(t, "81477.32", active.ProratedComp.String())

	terminated := got.Rows[1]
	require.NotNil(t, terminated.TerminationDate)
	assert.Equal(t, workforce.Date(2026, time.October, 3), *terminated.TerminationDate)
	assert.Equal(t, workforce.StatusTerminated, terminated.Status)

	assert.Equal(t, 1, got.ActiveCount())
}

func TestSaveSnapshot_RematerializationReplacesYear(t *testing.T) {
	// Re-saving a year must replace its rows, not accumulate them.
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.SaveSnapshot(ctx, sampleSnapshot(2026))
	require.NoError(t, err)

	smaller := sampleSnapshot(2026)
	smaller.Rows = smaller.Rows[:1]
	rows, err := st.SaveSnapshot(ctx, smaller)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	got, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Rows, 1)
}

func TestSnapshotForYear_NilWhenNeverMaterialized(t *testing.T) {
	st := newTestStore(t)

	got, err := st.SnapshotForYear(context.Background(), 2030)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// ROLLBACK
// =============================================================================

func TestPurgeYear_RemovesEventsAndSnapshot(t *testing.T) {
	// GIVEN: two persisted years
	// WHEN: purging one
	// THEN: only that year's rows are gone

	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.AppendEvents(ctx, sampleEvents(2026))
	require.NoError(t, err)
	_, err = st.SaveSnapshot(ctx, sampleSnapshot(2026))
	require.NoError(t, err)
	_, err = st.AppendEvents(ctx, sampleEvents(2027))
	require.NoError(t, err)

	removed, err := st.PurgeYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 5, removed) // 3 events + 2 snapshot rows

	count, err := st.CountEvents(ctx, 2026)
	require.NoError(t, err)
	assert.Zero(t, count)
	snapshot, err := st.SnapshotForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	count, err = st.CountEvents(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "other years untouched")

	// A purged year accepts a fresh append: the rollback/re-run path.
	_, err = st.AppendEvents(ctx, sampleEvents(2026))
	require.NoError(t, err)
}
