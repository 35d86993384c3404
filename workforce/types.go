/*
Package workforce contains the core workforce simulation domain.

PURPOSE:
  This package owns the data model and algorithms for one simulation year:
  solving growth targets into hire/termination counts, generating the
  year's life-cycle events, and reconciling those events onto the prior
  year's ending state to produce an auditable year-end snapshot.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: One person's state as of a year (the unit of simulation)
  - Event: An immutable life-cycle record (hire, termination, promotion, raise)
  - SnapshotRow / Snapshot: The reconciled year-end state
  - Requirement: The solved hire/termination plan for one year

DESIGN PRINCIPLES:
  1. Immutability: Events are append-only; snapshots are rebuilt, never patched
  2. Precision: compensation uses decimal.Decimal, never float64
  3. Continuity: year N+1 reads ONLY year N's snapshot actives as its baseline
  4. Determinism: identical inputs and seed produce byte-identical snapshots

SEE ALSO:
  - requirements.go: Growth-target solver
  - generator.go: Event generation for one year
  - periods.go: Compensation period construction and proration
  - reconciler.go: Snapshot reconciliation
  - errors.go: Error taxonomy shared across the simulation core
*/
package workforce

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND STATUS CODES
// =============================================================================

type EmployeeID string

type EmploymentStatus string

const (
	StatusActive     EmploymentStatus = "active"
	StatusTerminated EmploymentStatus = "terminated"
)

// DetailedStatus is a total, mutually exclusive function of
// (employment status, hired-this-year). Every snapshot row gets exactly one.
type DetailedStatus string

const (
	StatusNewHireActive          DetailedStatus = "new_hire_active"
	StatusContinuousActive       DetailedStatus = "continuous_active"
	StatusNewHireTermination     DetailedStatus = "new_hire_termination"
	StatusExperiencedTermination DetailedStatus = "experienced_termination"
)

// =============================================================================
// EMPLOYEE - One person's state as of a simulation year
// =============================================================================

type Employee struct {
	ID               EmployeeID
	BirthDate        time.Time
	HireDate         time.Time
	TerminationDate  *time.Time // nil while active
	CompensationRate decimal.Decimal
	Level            int
	Status           EmploymentStatus
}

// AgeBand buckets the employee's age at the start of the given year.
func (e Employee) AgeBand(year int) string {
	age := year - e.BirthDate.Year()
	switch {
	case age < 30:
		return "<30"
	case age < 40:
		return "30-39"
	case age < 50:
		return "40-49"
	case age < 60:
		return "50-59"
	default:
		return "60+"
	}
}

// TenureBand buckets completed years of service at the start of the given year.
func (e Employee) TenureBand(year int) string {
	tenure := year - e.HireDate.Year()
	switch {
	case tenure < 1:
		return "<1"
	case tenure < 3:
		return "1-2"
	case tenure < 5:
		return "3-4"
	case tenure < 10:
		return "5-9"
	default:
		return "10+"
	}
}

// =============================================================================
// EVENT - Immutable, append-only life-cycle record
// =============================================================================

type EventType string

const (
	EventHire        EventType = "hire"
	EventTermination EventType = "termination"
	EventPromotion   EventType = "promotion"
	EventMeritRaise  EventType = "merit_raise"
)

// Event records one life-cycle change. Payload fields are type-specific:
// hires carry the full starting profile, compensation events carry the new
// rate, terminations carry a reason. Events are never mutated or deleted.
type Event struct {
	EmployeeID     EmployeeID
	Type           EventType
	SimulationYear int
	EffectiveDate  time.Time

	// hire payload
	BirthDate time.Time

	// hire / promotion payload
	NewLevel int

	// hire / promotion / merit_raise payload
	NewCompensation decimal.Decimal

	// termination payload
	TerminationReason string
}

// Key identifies an event in the persisted events table.
func (ev Event) Key() string {
	return fmt.Sprintf("%s|%d|%s|%s", ev.EmployeeID, ev.SimulationYear, ev.Type, ev.EffectiveDate.Format("2006-01-02"))
}

// AffectsCompensation reports whether the event opens a new pay period.
func (ev Event) AffectsCompensation() bool {
	switch ev.Type {
	case EventHire, EventPromotion, EventMeritRaise:
		return true
	default:
		return false
	}
}

// =============================================================================
// REQUIREMENT - The solved hire/termination plan for one year
// =============================================================================

// Requirement carries every intermediate quantity of the solve, not just the
// final counts. Keeping the inputs on the record is what makes a later
// "why did we hire 200 people" question answerable.
type Requirement struct {
	SimulationYear         int
	StartingHeadcount      int
	TargetGrowthRate       float64
	TotalTerminationRate   float64
	NewHireTerminationRate float64

	TargetEndingHeadcount   int
	ExperiencedTerminations int
	GrossHires              int
	ExpectedNewHireLosses   int
	ExpectedNetChange       int
}

// =============================================================================
// SNAPSHOT - Reconciled year-end state
// =============================================================================

type SnapshotRow struct {
	EmployeeID       EmployeeID
	SimulationYear   int
	Status           EmploymentStatus
	DetailedStatus   DetailedStatus
	BirthDate        time.Time
	HireDate         time.Time
	TerminationDate  *time.Time
	Level            int
	CompensationRate decimal.Decimal // annualized ending rate
	ProratedComp     decimal.Decimal // time-weighted actual-year compensation
}

// Snapshot is the complete reconciled state for one year.
// Rows are sorted by EmployeeID; the ordering is part of the determinism
// contract (byte-identical output for identical inputs).
type Snapshot struct {
	Year int
	Rows []SnapshotRow
}

// ActiveCount returns the number of active employees at year end.
func (s *Snapshot) ActiveCount() int {
	n := 0
	for _, r := range s.Rows {
		if r.Status == StatusActive {
			n++
		}
	}
	return n
}

// Actives returns the year-end active population as the baseline Employee
// set for the next year. The returned employees carry the ending
// (annualized) compensation rate, not the prorated amount.
func (s *Snapshot) Actives() []Employee {
	var out []Employee
	for _, r := range s.Rows {
		if r.Status != StatusActive {
			continue
		}
		out = append(out, Employee{
			ID:               r.EmployeeID,
			BirthDate:        r.BirthDate,
			HireDate:         r.HireDate,
			CompensationRate: r.CompensationRate,
			Level:            r.Level,
			Status:           StatusActive,
		})
	}
	return out
}

// =============================================================================
// VARIANCE - Expected vs. realized net change
// =============================================================================

// Variance compares the Requirement's expected net change against what the
// reconciled snapshot actually shows. Tolerance is a fraction of starting
// headcount; 0 means exact.
type Variance struct {
	SimulationYear int
	Expected       int
	Actual         int
	Delta          int
	Tolerance      float64
	Flagged        bool
}

func (v Variance) String() string {
	return fmt.Sprintf("year %d: expected net change %+d, actual %+d (delta %+d, tolerance %.1f%%)",
		v.SimulationYear, v.Expected, v.Actual, v.Delta, v.Tolerance*100)
}

// =============================================================================
// DATE HELPERS - Day-granular, always UTC
// =============================================================================

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func StartOfYear(year int) time.Time { return Date(year, time.January, 1) }
func EndOfYear(year int) time.Time   { return Date(year, time.December, 31) }

// DaysInclusive counts days in [from, to], both endpoints included.
func DaysInclusive(from, to time.Time) int {
	return int(to.Sub(from).Hours()/24) + 1
}
