/*
reconciler.go - Snapshot reconciliation

PURPOSE:
  Applies one year's events onto the prior year's ending state and produces
  the year-end WorkforceSnapshot: the union of the prior active population
  and this year's hires, each employee's prorated compensation across their
  pay periods, and a total status classification.

THE CONTRACT:
  Reconcile is a pure function. The same baseline and event set always
  produce a byte-identical snapshot (rows sorted by employee ID). Year N+1
  is defined entirely in terms of year N's snapshot, so any
  non-determinism here compounds across the run.

DUPLICATE DEFENSE:
  A baseline record and a hire event for the same employee in the same
  year should not happen, but must be defended against. The tiebreak is
  the hire event's date: in the current year, the new-hire record wins
  (treated as a rehire); outside it, the existing record wins and the hire
  event is ignored. Duplicates the tiebreak cannot decide - two hire
  events for one employee, or the same employee twice in the baseline -
  fail loudly as DataIntegrityError. Silently guessing is how
  misclassification has crept in before.

SEE ALSO:
  - periods.go: Period construction and proration
  - generator.go: Produces the events consumed here
*/
package workforce

import (
	"log"
	"math"
	"sort"
	"strconv"
)

// Reconcile applies a year's events onto the baseline population and
// returns the year-end snapshot plus a variance record against the
// Requirement. tolerance is a fraction of starting headcount; 0 demands an
// exact landing.
func Reconcile(year int, baseline []Employee, events []Event, req Requirement, tolerance float64) (*Snapshot, Variance, error) {
	byEmployee, err := indexEvents(year, events)
	if err != nil {
		return nil, Variance{}, err
	}

	existing := make(map[EmployeeID]Employee, len(baseline))
	for _, emp := range baseline {
		if emp.HireDate.IsZero() {
			return nil, Variance{}, &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "hire date is NULL in baseline"}
		}
		if _, dup := existing[emp.ID]; dup {
			return nil, Variance{}, &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "duplicate baseline record"}
		}
		existing[emp.ID] = emp
	}

	// Union of prior actives and this year's hires, with the duplicate
	// tiebreak applied where both records exist.
	population := make(map[EmployeeID]Employee, len(existing))
	for id, emp := range existing {
		population[id] = emp
	}
	for id, evs := range byEmployee {
		hire := firstOfType(evs, EventHire)
		if hire == nil {
			if _, known := population[id]; !known {
				return nil, Variance{}, &DataIntegrityError{Year: year, EmployeeID: id, Reason: "event for employee absent from baseline and hires"}
			}
			continue
		}
		fromHire := Employee{
			ID:               id,
			BirthDate:        hire.BirthDate,
			HireDate:         hire.EffectiveDate,
			CompensationRate: hire.NewCompensation,
			Level:            hire.NewLevel,
			Status:           StatusActive,
		}
		if prior, dup := population[id]; dup {
			if hire.EffectiveDate.Year() == year {
				log.Printf("reconcile year=%d: employee %s has baseline record and current-year hire; new-hire record wins", year, id)
				population[id] = fromHire
			} else {
				log.Printf("reconcile year=%d: employee %s has stale hire event dated %s; existing record wins", year, id, hire.EffectiveDate.Format("2006-01-02"))
				population[id] = prior
			}
			continue
		}
		population[id] = fromHire
	}

	snapshot := &Snapshot{Year: year}
	for _, id := range sortedIDs(population) {
		row, err := reconcileEmployee(year, population[id], byEmployee[id])
		if err != nil {
			return nil, Variance{}, err
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}

	variance := VarianceFor(req, snapshot.ActiveCount()-len(baseline), tolerance)
	if variance.Flagged {
		log.Printf("reconcile: %s", variance)
	}

	return snapshot, variance, nil
}

// VarianceFor compares a realized net change against the Requirement's
// expectation. tolerance is a fraction of starting headcount; 0 demands an
// exact landing.
func VarianceFor(req Requirement, actualNet int, tolerance float64) Variance {
	v := Variance{
		SimulationYear: req.SimulationYear,
		Expected:       req.ExpectedNetChange,
		Actual:         actualNet,
		Tolerance:      tolerance,
	}
	v.Delta = v.Actual - v.Expected
	v.Flagged = math.Abs(float64(v.Delta)) > tolerance*float64(req.StartingHeadcount)
	return v
}

// reconcileEmployee folds one employee's events into their year-end row.
func reconcileEmployee(year int, emp Employee, evs []Event) (SnapshotRow, error) {
	var changes []Event
	for _, ev := range evs {
		switch ev.Type {
		case EventHire:
			// Already folded into emp by the caller.
		case EventTermination:
			if emp.TerminationDate != nil {
				return SnapshotRow{}, &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "more than one termination event"}
			}
			d := ev.EffectiveDate
			emp.TerminationDate = &d
			emp.Status = StatusTerminated
		case EventPromotion:
			changes = append(changes, ev)
		case EventMeritRaise:
			changes = append(changes, ev)
		}
	}

	periods, err := BuildPeriods(year, emp, changes)
	if err != nil {
		return SnapshotRow{}, err
	}

	// Ending annualized rate and level reflect the last change that took
	// effect on or before the employment span's end.
	endingRate := periods[len(periods)-1].Rate
	level := emp.Level
	for _, ev := range changes {
		if ev.Type == EventPromotion && !ev.EffectiveDate.After(periods[len(periods)-1].End) {
			level = ev.NewLevel
		}
	}

	status, err := classify(year, emp)
	if err != nil {
		return SnapshotRow{}, err
	}

	return SnapshotRow{
		EmployeeID:       emp.ID,
		SimulationYear:   year,
		Status:           emp.Status,
		DetailedStatus:   status,
		BirthDate:        emp.BirthDate,
		HireDate:         emp.HireDate,
		TerminationDate:  emp.TerminationDate,
		Level:            level,
		CompensationRate: endingRate,
		ProratedComp:     Prorate(periods),
	}, nil
}

// classify is total over (employment status, hired-this-year). A NULL hire
// date is a data-integrity failure, never silently defaulted.
func classify(year int, emp Employee) (DetailedStatus, error) {
	if emp.HireDate.IsZero() {
		return "", &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "hire date is NULL"}
	}
	hiredThisYear := emp.HireDate.Year() == year
	switch {
	case emp.Status == StatusActive && hiredThisYear:
		return StatusNewHireActive, nil
	case emp.Status == StatusActive:
		return StatusContinuousActive, nil
	case hiredThisYear:
		return StatusNewHireTermination, nil
	default:
		return StatusExperiencedTermination, nil
	}
}

// indexEvents groups events by employee in deterministic chronological
// order, rejecting events from other years and exact duplicates.
func indexEvents(year int, events []Event) (map[EmployeeID][]Event, error) {
	seen := make(map[string]bool, len(events))
	out := make(map[EmployeeID][]Event)
	for _, ev := range events {
		if ev.SimulationYear != year {
			return nil, &DataIntegrityError{Year: year, EmployeeID: ev.EmployeeID,
				Reason: "event tagged for year " + strconv.Itoa(ev.SimulationYear)}
		}
		if seen[ev.Key()] {
			return nil, &DataIntegrityError{Year: year, EmployeeID: ev.EmployeeID, Reason: "duplicate event " + ev.Key()}
		}
		seen[ev.Key()] = true
		out[ev.EmployeeID] = append(out[ev.EmployeeID], ev)
	}
	for id, evs := range out {
		sort.SliceStable(evs, func(i, j int) bool {
			if !evs[i].EffectiveDate.Equal(evs[j].EffectiveDate) {
				return evs[i].EffectiveDate.Before(evs[j].EffectiveDate)
			}
			return typeOrder(evs[i].Type) < typeOrder(evs[j].Type)
		})
		hires := 0
		for _, ev := range evs {
			if ev.Type == EventHire {
				hires++
			}
		}
		if hires > 1 {
			return nil, &DataIntegrityError{Year: year, EmployeeID: id, Reason: "ambiguous duplicate: multiple hire events"}
		}
		out[id] = evs
	}
	return out, nil
}

// typeOrder fixes same-day ordering: a hire precedes any raise, and a
// termination comes last.
func typeOrder(t EventType) int {
	switch t {
	case EventHire:
		return 0
	case EventPromotion:
		return 1
	case EventMeritRaise:
		return 2
	case EventTermination:
		return 3
	default:
		return 4
	}
}

func firstOfType(evs []Event, t EventType) *Event {
	for i := range evs {
		if evs[i].Type == t {
			return &evs[i]
		}
	}
	return nil
}

func sortedIDs(m map[EmployeeID]Employee) []EmployeeID {
	ids := make([]EmployeeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
