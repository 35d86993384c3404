/*
generator.go - Event generation for one simulation year

PURPOSE:
  Orchestrates the hazard engine against the year's eligible population to
  emit a complete, internally consistent event set: experienced
  terminations first, then hires, then new-hire attrition, then promotions
  and merit raises for the surviving population.

SEQUENCING RULES:
  1. Terminations are sampled BEFORE hires, so a just-hired employee can
     never be selected by experienced-termination logic.
  2. An employee receives at most one termination per year. Raises and
     promotions may coexist with a termination only up to its effective date.
  3. Selection always sources the CURRENT year's eligible population - the
     prior year's ending snapshot. Sampling a stale population silently
     breaks year-over-year continuity and compounds into runaway growth or
     collapse; Generate refuses a baseline whose size disagrees with the
     Requirement it was solved from.

EXACT COUNTS:
  The Requirement demands exact counts; accept-reject sampling cannot hit
  them. Employees are instead ranked by draw/probability - the hazard
  model weights who goes, the quota decides how many - which stays fully
  deterministic under a fixed seed.
*/
package workforce

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/workforce-sim/hazard"
)

// =============================================================================
// GENERATOR CONFIGURATION
// =============================================================================

// DefaultVarianceTolerance is the post-generation count tolerance,
// as a fraction of starting headcount.
const DefaultVarianceTolerance = 0.05

// NewHireProfile controls the synthetic attributes of generated hires.
// All sampling is deterministic in the hire's sequence number.
type NewHireProfile struct {
	BaseCompensation decimal.Decimal `yaml:"base_compensation"`
	CompensationStep decimal.Decimal `yaml:"compensation_step"` // added per level above 1
	Levels           []int           `yaml:"levels"`            // assigned cyclically
	MinAge           int             `yaml:"min_age"`
	MaxAge           int             `yaml:"max_age"`
}

func (p NewHireProfile) withDefaults() NewHireProfile {
	if p.BaseCompensation.IsZero() {
		p.BaseCompensation = decimal.NewFromInt(60000)
	}
	if p.CompensationStep.IsZero() {
		p.CompensationStep = decimal.NewFromInt(15000)
	}
	if len(p.Levels) == 0 {
		p.Levels = []int{1, 1, 2, 2, 3}
	}
	if p.MinAge == 0 {
		p.MinAge = 25
	}
	if p.MaxAge == 0 {
		p.MaxAge = 45
	}
	return p
}

// RaisePolicy fixes the effective date and size of a raise type.
type RaisePolicy struct {
	Rate  float64    `yaml:"rate"`
	Month time.Month `yaml:"month"`
	Day   int        `yaml:"day"`
}

func (rp RaisePolicy) effectiveDate(year int) time.Time {
	return Date(year, rp.Month, rp.Day)
}

type GeneratorConfig struct {
	VarianceTolerance float64        `yaml:"variance_tolerance"`
	VarianceFatal     bool           `yaml:"variance_fatal"`
	NewHire           NewHireProfile `yaml:"new_hire"`
	Merit             RaisePolicy    `yaml:"merit"`
	Promotion         RaisePolicy    `yaml:"promotion"`
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.VarianceTolerance == 0 {
		c.VarianceTolerance = DefaultVarianceTolerance
	}
	c.NewHire = c.NewHire.withDefaults()
	if c.Merit.Month == 0 {
		c.Merit = RaisePolicy{Rate: 0.04, Month: time.July, Day: 15}
	}
	if c.Promotion.Month == 0 {
		c.Promotion = RaisePolicy{Rate: 0.10, Month: time.February, Day: 1}
	}
	return c
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Hazard *hazard.Engine
	Config GeneratorConfig
}

func NewGenerator(engine *hazard.Engine, cfg GeneratorConfig) *Generator {
	return &Generator{Hazard: engine, Config: cfg.withDefaults()}
}

// GenerationReport summarizes the emitted event set against the Requirement.
type GenerationReport struct {
	Requirement             Requirement
	ExperiencedTerminations int
	Hires                   int
	NewHireTerminations     int
	Promotions              int
	MeritRaises             int
	ProjectedNetChange      int
	WithinTolerance         bool
}

// Generate emits the full event set for one year from the prior year's
// ending population. The baseline must be exactly the population the
// Requirement was solved from.
func (g *Generator) Generate(year int, req Requirement, baseline []Employee) ([]Event, GenerationReport, error) {
	if len(baseline) != req.StartingHeadcount {
		return nil, GenerationReport{}, &DataIntegrityError{Year: year,
			Reason: fmt.Sprintf("baseline has %d employees but requirement was solved for %d: stale population", len(baseline), req.StartingHeadcount)}
	}
	if req.ExperiencedTerminations > len(baseline) {
		return nil, GenerationReport{}, &DataIntegrityError{Year: year,
			Reason: fmt.Sprintf("cannot terminate %d of %d employees", req.ExperiencedTerminations, len(baseline))}
	}

	var events []Event

	// 1. Experienced terminations: sampled before any hire exists.
	terminated := make(map[EmployeeID]bool)
	for _, emp := range g.rankByHazard(hazard.KindTermination, year, baseline)[:req.ExperiencedTerminations] {
		draw := g.Hazard.Draw(hazard.KindTermination, string(emp.ID), year)
		events = append(events, Event{
			EmployeeID:        emp.ID,
			Type:              EventTermination,
			SimulationYear:    year,
			EffectiveDate:     StartOfYear(year).AddDate(0, 0, int(draw*364)),
			TerminationReason: "experienced_attrition",
		})
		terminated[emp.ID] = true
	}

	// 2. Hires.
	hires := g.generateHires(year, req.GrossHires)
	events = append(events, hires...)

	// 3. New-hire attrition, sampled only from this year's hires.
	nhEvents := g.generateNewHireTerminations(year, req.ExpectedNewHireLosses, hires)
	events = append(events, nhEvents...)

	// 4. Promotions and merit raises for the experienced population.
	// Raises after an employee's termination date never fire.
	termDates := make(map[EmployeeID]time.Time)
	for _, ev := range events {
		if ev.Type == EventTermination {
			termDates[ev.EmployeeID] = ev.EffectiveDate
		}
	}
	promotions, merits := g.generateRaises(year, baseline, termDates)
	events = append(events, promotions...)
	events = append(events, merits...)

	// Determinism: total order before anything downstream reads the set.
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		return typeOrder(a.Type) < typeOrder(b.Type)
	})

	report := GenerationReport{
		Requirement:             req,
		ExperiencedTerminations: req.ExperiencedTerminations,
		Hires:                   len(hires),
		NewHireTerminations:     len(nhEvents),
		Promotions:              len(promotions),
		MeritRaises:             len(merits),
	}
	report.ProjectedNetChange = report.Hires - report.NewHireTerminations - report.ExperiencedTerminations

	allowed := g.Config.VarianceTolerance * float64(req.StartingHeadcount)
	delta := math.Abs(float64(report.ProjectedNetChange - req.ExpectedNetChange))
	report.WithinTolerance = delta <= allowed
	if !report.WithinTolerance {
		v := Variance{
			SimulationYear: year,
			Expected:       req.ExpectedNetChange,
			Actual:         report.ProjectedNetChange,
			Delta:          report.ProjectedNetChange - req.ExpectedNetChange,
			Tolerance:      g.Config.VarianceTolerance,
			Flagged:        true,
		}
		if g.Config.VarianceFatal {
			return nil, report, &VarianceExceededError{Variance: v}
		}
		log.Printf("generate: %s", v)
	}

	return events, report, nil
}

// rankByHazard orders employees by draw/probability ascending: the most
// likely leavers with the lowest draws come first. Ties break on ID so the
// order is total.
func (g *Generator) rankByHazard(kind hazard.EventKind, year int, population []Employee) []Employee {
	type scored struct {
		emp   Employee
		score float64
	}
	ranked := make([]scored, 0, len(population))
	for _, emp := range population {
		p := g.Hazard.Probability(kind, g.attrs(emp, year))
		draw := g.Hazard.Draw(kind, string(emp.ID), year)
		score := math.Inf(1)
		if p > 0 {
			score = draw / p
		}
		ranked = append(ranked, scored{emp: emp, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].emp.ID < ranked[j].emp.ID
	})
	out := make([]Employee, len(ranked))
	for i, s := range ranked {
		out[i] = s.emp
	}
	return out
}

func (g *Generator) attrs(emp Employee, year int) hazard.Attributes {
	return hazard.Attributes{
		AgeBand:    emp.AgeBand(year),
		TenureBand: emp.TenureBand(year),
		Level:      emp.Level,
	}
}

// generateHires emits count hire events with deterministic synthetic
// profiles, spread across the year.
func (g *Generator) generateHires(year, count int) []Event {
	nh := g.Config.NewHire
	ageSpan := nh.MaxAge - nh.MinAge + 1
	events := make([]Event, 0, count)
	for i := 0; i < count; i++ {
		level := nh.Levels[i%len(nh.Levels)]
		comp := nh.BaseCompensation.Add(nh.CompensationStep.Mul(decimal.NewFromInt(int64(level - 1))))
		age := nh.MinAge + i%ageSpan
		events = append(events, Event{
			EmployeeID:      EmployeeID(fmt.Sprintf("NH-%d-%04d", year, i+1)),
			Type:            EventHire,
			SimulationYear:  year,
			EffectiveDate:   StartOfYear(year).AddDate(0, 0, i*364/max(count, 1)),
			BirthDate:       Date(year-age, time.Month(i%12+1), 15),
			NewLevel:        level,
			NewCompensation: comp,
		})
	}
	return events
}

// generateNewHireTerminations picks count of this year's hires by hazard
// ranking and terminates each after its own hire date.
func (g *Generator) generateNewHireTerminations(year, count int, hires []Event) []Event {
	if count > len(hires) {
		count = len(hires)
	}
	pool := make([]Employee, 0, len(hires))
	hireDates := make(map[EmployeeID]time.Time, len(hires))
	for _, h := range hires {
		pool = append(pool, Employee{
			ID:        h.EmployeeID,
			BirthDate: h.BirthDate,
			HireDate:  h.EffectiveDate,
			Level:     h.NewLevel,
			Status:    StatusActive,
		})
		hireDates[h.EmployeeID] = h.EffectiveDate
	}

	events := make([]Event, 0, count)
	for _, emp := range g.rankByHazard(hazard.KindTermination, year, pool)[:count] {
		draw := g.Hazard.Draw(hazard.KindTermination, string(emp.ID), year)
		hired := hireDates[emp.ID]
		remaining := DaysInclusive(hired, EndOfYear(year)) - 1
		offset := 0
		if remaining > 0 {
			offset = 1 + int(draw*float64(remaining-1))
		}
		events = append(events, Event{
			EmployeeID:        emp.ID,
			Type:              EventTermination,
			SimulationYear:    year,
			EffectiveDate:     hired.AddDate(0, 0, offset),
			TerminationReason: "new_hire_attrition",
		})
	}
	return events
}

// generateRaises emits promotion and merit events for the experienced
// population, each gated by its own hazard decision and the employee's
// termination date.
func (g *Generator) generateRaises(year int, baseline []Employee, termDates map[EmployeeID]time.Time) (promotions, merits []Event) {
	promoDate := g.Config.Promotion.effectiveDate(year)
	meritDate := g.Config.Merit.effectiveDate(year)

	for _, emp := range baseline {
		rate := emp.CompensationRate
		attrs := g.attrs(emp, year)
		termDate, wasTerminated := termDates[emp.ID]

		if g.Hazard.Occurs(hazard.KindPromotion, attrs, string(emp.ID), year) &&
			(!wasTerminated || !promoDate.After(termDate)) {
			rate = rate.Mul(decimal.NewFromFloat(1 + g.Config.Promotion.Rate)).Round(2)
			promotions = append(promotions, Event{
				EmployeeID:      emp.ID,
				Type:            EventPromotion,
				SimulationYear:  year,
				EffectiveDate:   promoDate,
				NewLevel:        emp.Level + 1,
				NewCompensation: rate,
			})
		}

		if g.Hazard.Occurs(hazard.KindMeritRaise, attrs, string(emp.ID), year) &&
			(!wasTerminated || !meritDate.After(termDate)) {
			rate = rate.Mul(decimal.NewFromFloat(1 + g.Config.Merit.Rate)).Round(2)
			merits = append(merits, Event{
				EmployeeID:      emp.ID,
				Type:            EventMeritRaise,
				SimulationYear:  year,
				EffectiveDate:   meritDate,
				NewCompensation: rate,
			})
		}
	}
	return promotions, merits
}
