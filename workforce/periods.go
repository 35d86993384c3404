/*
periods.go - Compensation period construction and proration

PURPOSE:
  A year with a raise, a promotion, or a termination has more than one pay
  rate in it. This file slices an employee's year into contiguous,
  non-overlapping periods, each with a single rate, and prorates annual
  compensation as the day-weighted average across them.

CRITICAL INVARIANTS:
  1. Periods never overlap, and each period starts the day after the
     previous one ends.
  2. The last period ends at min(year_end, termination_date). A period that
     runs past a termination double-counts days and inflates prorated pay -
     that exact defect has shipped before, which is why ValidatePeriods
     re-checks construction output instead of trusting it.
  3. Day counts are inclusive of both endpoints.
*/
package workforce

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CompensationPeriod is a derived, non-persistent interval with one rate.
type CompensationPeriod struct {
	EmployeeID EmployeeID
	Start      time.Time
	End        time.Time
	Rate       decimal.Decimal
}

func (p CompensationPeriod) Days() int { return DaysInclusive(p.Start, p.End) }

func (p CompensationPeriod) String() string {
	return fmt.Sprintf("[%s, %s] @ %s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"), p.Rate)
}

// BuildPeriods derives the employee's compensation periods for one year.
//
// emp must already reflect the year's terminal state: HireDate set,
// TerminationDate set if the employee terminated this year, and
// CompensationRate holding the rate in force at the start of the
// employment span. changes holds only compensation-changing events
// (promotions, merit raises); hire and termination are expressed through
// emp itself.
func BuildPeriods(year int, emp Employee, changes []Event) ([]CompensationPeriod, error) {
	if emp.HireDate.IsZero() {
		return nil, &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "hire date is NULL"}
	}

	spanStart := StartOfYear(year)
	if emp.HireDate.After(spanStart) {
		spanStart = emp.HireDate
	}
	spanEnd := EndOfYear(year)
	if emp.TerminationDate != nil && emp.TerminationDate.Before(spanEnd) {
		spanEnd = *emp.TerminationDate
	}
	if spanEnd.Before(spanStart) {
		return nil, &DataIntegrityError{Year: year, EmployeeID: emp.ID,
			Reason: fmt.Sprintf("termination %s precedes employment start %s", spanEnd.Format("2006-01-02"), spanStart.Format("2006-01-02"))}
	}

	sorted := append([]Event(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})

	periods := []CompensationPeriod{{EmployeeID: emp.ID, Start: spanStart, End: spanEnd, Rate: emp.CompensationRate}}
	for _, ev := range sorted {
		if !ev.AffectsCompensation() {
			continue
		}
		d := ev.EffectiveDate
		if d.After(spanEnd) {
			// Rate change after termination never takes effect.
			continue
		}
		last := &periods[len(periods)-1]
		if !d.After(last.Start) {
			// Change on or before the open period's start replaces its rate.
			last.Rate = ev.NewCompensation
			continue
		}
		last.End = d.AddDate(0, 0, -1)
		periods = append(periods, CompensationPeriod{EmployeeID: emp.ID, Start: d, End: spanEnd, Rate: ev.NewCompensation})
	}

	if err := ValidatePeriods(year, emp, periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// ValidatePeriods re-checks the period invariants independently of how the
// periods were built. Overlap or span escape is a DataIntegrityError.
func ValidatePeriods(year int, emp Employee, periods []CompensationPeriod) error {
	if len(periods) == 0 {
		return &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "no compensation periods"}
	}
	bound := EndOfYear(year)
	if emp.TerminationDate != nil && emp.TerminationDate.Before(bound) {
		bound = *emp.TerminationDate
	}
	for i, p := range periods {
		if p.End.Before(p.Start) {
			return &DataIntegrityError{Year: year, EmployeeID: emp.ID, Reason: "period end before start: " + p.String()}
		}
		if p.End.After(bound) {
			return &DataIntegrityError{Year: year, EmployeeID: emp.ID,
				Reason: fmt.Sprintf("period extends past %s: %s", bound.Format("2006-01-02"), p)}
		}
		if i > 0 {
			prev := periods[i-1]
			if !p.Start.Equal(prev.End.AddDate(0, 0, 1)) {
				return &DataIntegrityError{Year: year, EmployeeID: emp.ID,
					Reason: fmt.Sprintf("periods not contiguous: %s then %s", prev, p)}
			}
		}
	}
	return nil
}

// Prorate computes the day-weighted annual compensation across the periods,
// rounded to cents: Σ(rate × days) / Σ(days).
func Prorate(periods []CompensationPeriod) decimal.Decimal {
	weighted := decimal.Zero
	days := 0
	for _, p := range periods {
		d := p.Days()
		weighted = weighted.Add(p.Rate.Mul(decimal.NewFromInt(int64(d))))
		days += d
	}
	if days == 0 {
		return decimal.Zero
	}
	return weighted.Div(decimal.NewFromInt(int64(days))).Round(2)
}
