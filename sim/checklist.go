/*
Package sim drives the multi-year workforce simulation.

PURPOSE:
  This package owns the per-year step checklist and the orchestrator that
  walks years through it. The checklist holds no business logic - only
  dependency bookkeeping - but it is what prevents the single most
  damaging operator error: reconciling a year whose events were never
  generated.

KEY CONCEPTS:
  - Step: one of the fixed 7 stages every simulation year goes through
  - Checklist: pending/complete state per (year, step), with a static
    dependency DAG, resume, and rollback
  - Orchestrator: the year loop, gated by the checklist at every step

DESIGN:
  The checklist is an explicit state object scoped to one run - never a
  process-wide singleton - so multiple simulations can run in isolated
  contexts.

SEE ALSO:
  - orchestrator.go: The year loop
  - config.go: Typed run configuration
*/
package sim

import (
	"sort"
	"strconv"

	"github.com/warp/workforce-sim/workforce"
)

// =============================================================================
// STEPS - The fixed 7-stage per-year workflow
// =============================================================================

type Step string

const (
	StepPreSimulation         Step = "PRE_SIMULATION"
	StepYearTransition        Step = "YEAR_TRANSITION"
	StepWorkforceBaseline     Step = "WORKFORCE_BASELINE"
	StepWorkforceRequirements Step = "WORKFORCE_REQUIREMENTS"
	StepEventGeneration       Step = "EVENT_GENERATION"
	StepWorkforceSnapshot     Step = "WORKFORCE_SNAPSHOT"
	StepValidationMetrics     Step = "VALIDATION_METRICS"
)

// StepOrder is the execution order within a year.
var StepOrder = []Step{
	StepPreSimulation,
	StepYearTransition,
	StepWorkforceBaseline,
	StepWorkforceRequirements,
	StepEventGeneration,
	StepWorkforceSnapshot,
	StepValidationMetrics,
}

// stepDeps is the static same-year dependency DAG. YEAR_TRANSITION
// additionally depends on the PRIOR year's VALIDATION_METRICS; that edge is
// handled in unmetPrerequisites because it crosses years.
var stepDeps = map[Step][]Step{
	StepPreSimulation:         nil,
	StepYearTransition:        {StepPreSimulation},
	StepWorkforceBaseline:     {StepYearTransition},
	StepWorkforceRequirements: {StepWorkforceBaseline},
	StepEventGeneration:       {StepWorkforceRequirements},
	StepWorkforceSnapshot:     {StepEventGeneration},
	StepValidationMetrics:     {StepWorkforceSnapshot},
}

// ParseStep returns the named step, or false for an unknown name.
func ParseStep(name string) (Step, bool) {
	for _, s := range StepOrder {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// =============================================================================
// CHECKLIST - pending/complete state per (year, step)
// =============================================================================

type stepKey struct {
	Year int
	Step Step
}

// Checklist tracks step completion for one simulation run. Steps are
// created pending when a year begins and transition to complete exactly
// once; rollback resets a whole year back to pending.
type Checklist struct {
	firstYear int
	complete  map[stepKey]bool
}

func NewChecklist(firstYear int) *Checklist {
	return &Checklist{firstYear: firstYear, complete: make(map[stepKey]bool)}
}

// Required reports whether the step applies to the year. YEAR_TRANSITION is
// skipped for the first simulated year: there is no prior year to
// transition from.
func (c *Checklist) Required(year int, step Step) bool {
	return !(step == StepYearTransition && year == c.firstYear)
}

// IsComplete reports completion. Non-required steps count as complete.
func (c *Checklist) IsComplete(year int, step Step) bool {
	if !c.Required(year, step) {
		return true
	}
	return c.complete[stepKey{Year: year, Step: step}]
}

// MarkComplete records the step as done. It does not re-check
// prerequisites; AssertStepReady is the guard, MarkComplete the record.
func (c *Checklist) MarkComplete(year int, step Step) {
	c.complete[stepKey{Year: year, Step: step}] = true
}

// AssertStepReady fails with a StepSequenceError listing EVERY unmet
// prerequisite for (year, step), not just the first.
func (c *Checklist) AssertStepReady(year int, step Step) error {
	missing := c.unmetPrerequisites(year, step)
	if len(missing) == 0 {
		return nil
	}
	return &workforce.StepSequenceError{Year: year, Step: string(step), Missing: missing}
}

func (c *Checklist) unmetPrerequisites(year int, step Step) []string {
	var missing []string
	if step == StepYearTransition && year > c.firstYear && !c.IsComplete(year-1, StepValidationMetrics) {
		missing = append(missing, string(StepValidationMetrics)+" (year "+strconv.Itoa(year-1)+")")
	}
	for _, dep := range stepDeps[step] {
		if c.Required(year, dep) && !c.IsComplete(year, dep) {
			missing = append(missing, string(dep))
		}
	}
	sort.Strings(missing)
	return missing
}

// CanResumeFrom reports whether every (year, step) strictly before the
// given position in the global ordering is complete.
func (c *Checklist) CanResumeFrom(year int, step Step) bool {
	for y := c.firstYear; y <= year; y++ {
		for _, s := range StepOrder {
			if y == year && s == step {
				return true
			}
			if !c.IsComplete(y, s) {
				return false
			}
		}
	}
	return true
}

// NextPending returns the first incomplete (year, step) at or after
// firstYear, scanning up to lastYear. ok is false when everything through
// lastYear is complete.
func (c *Checklist) NextPending(lastYear int) (year int, step Step, ok bool) {
	for y := c.firstYear; y <= lastYear; y++ {
		for _, s := range StepOrder {
			if !c.IsComplete(y, s) {
				return y, s, true
			}
		}
	}
	return 0, "", false
}

// RollbackYear resets every step of the year to pending and returns any
// later years that already have completed steps. Those years are now built
// on an invalidated snapshot; the caller must roll them back too.
func (c *Checklist) RollbackYear(year int) []int {
	for _, s := range StepOrder {
		delete(c.complete, stepKey{Year: year, Step: s})
	}
	affected := map[int]bool{}
	for k, done := range c.complete {
		if done && k.Year > year {
			affected[k.Year] = true
		}
	}
	var years []int
	for y := range affected {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
