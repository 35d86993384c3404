/*
orchestrator.go - The multi-year simulation loop

PURPOSE:
  Drives years start..end through the 7-step checklist: solve
  requirements, generate events, persist them through the transformation
  engine, reconcile the snapshot, validate the result. Years run strictly
  sequentially - year N+1's baseline IS year N's snapshot - and a failed
  year stops the run rather than letting downstream years build on a wrong
  snapshot.

RESUME AND ROLLBACK:
  Completed steps are never re-executed and survive a failure, so a
  subsequent run with ResumeFrom picks up exactly where the last one
  stopped. RollbackYear resets a year (and reports the later years the
  caller must also roll back). Nothing here retries automatically; all
  retries are operator-driven.

ERROR SURFACE:
  Every fatal error is wrapped with the failing year and step so the
  operator can roll back and re-run one year instead of the whole horizon.
*/
package sim

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/warp/workforce-sim/hazard"
	"github.com/warp/workforce-sim/workforce"
)

// =============================================================================
// TRANSFORMER - The external transformation execution service
// =============================================================================

// Transformer is the seam to the engine that actually persists events and
// materializes snapshot tables. Calls are opaque and synchronous; the
// returned row counts feed the validation step. The underlying store
// allows one concurrent writer, so implementations must scope their write
// transaction and release it on every exit path.
type Transformer interface {
	PersistEvents(ctx context.Context, year int, events []workforce.Event) (int, error)
	MaterializeSnapshot(ctx context.Context, snapshot *workforce.Snapshot) (int, error)
}

// StoreTransformer runs transformations directly against a workforce.Store.
type StoreTransformer struct {
	Store workforce.Store
}

func (t StoreTransformer) PersistEvents(ctx context.Context, year int, events []workforce.Event) (int, error) {
	return t.Store.AppendEvents(ctx, events)
}

func (t StoreTransformer) MaterializeSnapshot(ctx context.Context, snapshot *workforce.Snapshot) (int, error) {
	return t.Store.SaveSnapshot(ctx, snapshot)
}

// =============================================================================
// RESULTS
// =============================================================================

// StepRecord is the audit trail for one executed step.
type StepRecord struct {
	Year       int
	Step       Step
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       int
	Skipped    bool // already complete (resume) or not required
}

// YearResult aggregates one year's outputs.
type YearResult struct {
	Year         int
	Requirement  workforce.Requirement
	Report       workforce.GenerationReport
	Variance     workforce.Variance
	EventRows    int
	SnapshotRows int
	EndingActive int
	Steps        []StepRecord
}

// RunResult aggregates a whole run.
type RunResult struct {
	RunID     string
	StartYear int
	EndYear   int
	Years     []YearResult
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Options map one-to-one onto the automation flags: --resume-from,
// --validate-only, --force-step.
type Options struct {
	// ResumeFrom skips years before it. A skipped year must be complete on
	// this checklist or hold a persisted snapshot from a previous run; a
	// verified year's checklist state is restored. Zero means no resume.
	ResumeFrom int

	// ValidateOnly asserts readiness of the next pending step and stops
	// without executing anything.
	ValidateOnly bool

	// ForceStep bypasses the checklist guard for the named step.
	ForceStep Step
}

type Orchestrator struct {
	cfg       Config
	store     workforce.Store
	transform Transformer
	checklist *Checklist
	generator *workforce.Generator

	// baseline seeds the first simulated year when the store holds no
	// snapshot for startYear−1.
	baseline []workforce.Employee
}

func New(cfg Config, store workforce.Store, transform Transformer, baseline []workforce.Employee) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := hazard.New(cfg.Hazard)
	if err != nil {
		return nil, &workforce.ConfigurationError{Field: "hazard", Value: "", Reason: err.Error()}
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		transform: transform,
		checklist: NewChecklist(cfg.StartYear),
		generator: workforce.NewGenerator(engine, cfg.Generator),
		baseline:  baseline,
	}, nil
}

// Checklist exposes the run's checklist state for inspection, resume
// bookkeeping, and rollback.
func (o *Orchestrator) Checklist() *Checklist { return o.checklist }

// RollbackYear purges the year's persisted events and snapshot, resets
// its checklist state, and returns later years the caller must roll back
// as well. Earlier years are never touched.
func (o *Orchestrator) RollbackYear(ctx context.Context, year int) ([]int, error) {
	purged, err := o.store.PurgeYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("rollback year %d: %w", year, err)
	}
	affected := o.checklist.RollbackYear(year)
	log.Printf("rollback year=%d purged %d rows", year, purged)
	if len(affected) > 0 {
		log.Printf("rollback year=%d invalidates later years %v; roll those back before re-running", year, affected)
	}
	return affected, nil
}

// Run executes the configured year range. On error the failing year and
// step are in the message and completed steps remain complete for resume.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartYear: o.cfg.StartYear,
		EndYear:   o.cfg.EndYear,
	}

	if opts.ValidateOnly {
		year, step, ok := o.checklist.NextPending(o.cfg.EndYear)
		if !ok {
			log.Printf("run %s: all steps through %d complete, nothing to validate", result.RunID, o.cfg.EndYear)
			return result, nil
		}
		if err := o.checklist.AssertStepReady(year, step); err != nil {
			return result, err
		}
		log.Printf("run %s: next pending step year=%d step=%s is ready", result.RunID, year, step)
		return result, nil
	}

	for year := o.cfg.StartYear; year <= o.cfg.EndYear; year++ {
		if opts.ResumeFrom > 0 && year < opts.ResumeFrom {
			if err := o.verifyResumedYear(ctx, year, opts.ResumeFrom); err != nil {
				return result, err
			}
			continue
		}
		yr, err := o.runYear(ctx, year, opts)
		if yr != nil {
			result.Years = append(result.Years, *yr)
		}
		if err != nil {
			return result, fmt.Errorf("year %d: %w", year, err)
		}
	}
	return result, nil
}

// verifyResumedYear checks that a year being skipped by ResumeFrom really
// finished: either this checklist saw it complete, or a previous run left
// its snapshot in the store. Verified years have their checklist state
// restored so cross-year guards hold for the years that do run.
func (o *Orchestrator) verifyResumedYear(ctx context.Context, year, resumeFrom int) error {
	if o.checklist.IsComplete(year, StepValidationMetrics) {
		return nil
	}
	snapshot, err := o.store.SnapshotForYear(ctx, year)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return &workforce.StepSequenceError{Year: year, Step: string(StepValidationMetrics),
			Missing: []string{"cannot resume from " + fmt.Sprint(resumeFrom) + ": year has no persisted snapshot"}}
	}
	for _, s := range StepOrder {
		o.checklist.MarkComplete(year, s)
	}
	log.Printf("resume: year %d verified via persisted snapshot (%d rows)", year, len(snapshot.Rows))
	return nil
}

// yearState threads intermediate products between a year's steps.
type yearState struct {
	baseline []workforce.Employee
	req      workforce.Requirement
	events   []workforce.Event
	snapshot *workforce.Snapshot
}

func (o *Orchestrator) runYear(ctx context.Context, year int, opts Options) (*YearResult, error) {
	yr := &YearResult{Year: year}
	state := &yearState{}

	for _, step := range StepOrder {
		if !o.checklist.Required(year, step) {
			yr.Steps = append(yr.Steps, StepRecord{Year: year, Step: step, Skipped: true})
			continue
		}
		if o.checklist.IsComplete(year, step) {
			// Resume path: recover the state later steps need, never redo work.
			if err := o.recoverState(ctx, year, step, state); err != nil {
				return yr, err
			}
			yr.Steps = append(yr.Steps, StepRecord{Year: year, Step: step, Skipped: true})
			continue
		}

		if step == opts.ForceStep {
			log.Printf("WARNING: forcing step %s for year %d, bypassing checklist guard; prerequisites were NOT verified", step, year)
		} else if err := o.checklist.AssertStepReady(year, step); err != nil {
			return yr, err
		}

		rec := StepRecord{Year: year, Step: step, StartedAt: time.Now().UTC()}
		rows, err := o.executeStep(ctx, year, step, state, yr)
		rec.FinishedAt = time.Now().UTC()
		rec.Rows = rows
		yr.Steps = append(yr.Steps, rec)
		if err != nil {
			return yr, fmt.Errorf("step %s: %w", step, err)
		}
		o.checklist.MarkComplete(year, step)
	}

	yr.EndingActive = state.snapshot.ActiveCount()
	return yr, nil
}

func (o *Orchestrator) executeStep(ctx context.Context, year int, step Step, state *yearState, yr *YearResult) (int, error) {
	switch step {
	case StepPreSimulation:
		return 0, o.cfg.Validate()

	case StepYearTransition:
		prior, err := o.store.SnapshotForYear(ctx, year-1)
		if err != nil {
			return 0, err
		}
		if prior == nil {
			return 0, &workforce.MissingPriorYearDataError{Year: year}
		}
		return len(prior.Rows), nil

	case StepWorkforceBaseline:
		baseline, err := o.loadBaseline(ctx, year)
		if err != nil {
			return 0, err
		}
		state.baseline = baseline
		return len(baseline), nil

	case StepWorkforceRequirements:
		req, err := workforce.Solve(year, len(state.baseline),
			o.cfg.TargetGrowthRate, o.cfg.TotalTerminationRate, o.cfg.NewHireTerminationRate)
		if err != nil {
			return 0, err
		}
		state.req = req
		yr.Requirement = req
		return 0, nil

	case StepEventGeneration:
		events, report, err := o.generator.Generate(year, state.req, state.baseline)
		if err != nil {
			return 0, err
		}
		rows, err := o.transform.PersistEvents(ctx, year, events)
		if err != nil {
			return rows, err
		}
		state.events = events
		yr.Report = report
		yr.EventRows = rows
		return rows, nil

	case StepWorkforceSnapshot:
		// Reconcile from the PERSISTED events, not the in-memory slice: the
		// snapshot must be a function of what the store actually holds.
		events, err := o.store.EventsForYear(ctx, year)
		if err != nil {
			return 0, err
		}
		snapshot, variance, err := workforce.Reconcile(year, state.baseline, events, state.req, o.cfg.ReconcileTolerance)
		if err != nil {
			return 0, err
		}
		rows, err := o.transform.MaterializeSnapshot(ctx, snapshot)
		if err != nil {
			return rows, err
		}
		state.snapshot = snapshot
		yr.Variance = variance
		yr.SnapshotRows = rows
		return rows, nil

	case StepValidationMetrics:
		// Every check here reads persisted state, never this run's
		// in-memory records: on a resume those records are zero values,
		// and a validation that trusted them would pass a year that just
		// failed.
		if state.snapshot == nil {
			return 0, &workforce.DataIntegrityError{Year: year, Reason: "no snapshot to validate"}
		}
		events, err := o.store.EventsForYear(ctx, year)
		if err != nil {
			return 0, err
		}
		count, err := o.store.CountEvents(ctx, year)
		if err != nil {
			return 0, err
		}
		if count != len(events) {
			return count, &workforce.DataIntegrityError{Year: year,
				Reason: fmt.Sprintf("store counts %d events but returns %d", count, len(events))}
		}
		if yr.EventRows != 0 && count != yr.EventRows {
			return count, &workforce.DataIntegrityError{Year: year,
				Reason: fmt.Sprintf("store holds %d events but %d were persisted", count, yr.EventRows)}
		}
		variance := workforce.VarianceFor(state.req, state.snapshot.ActiveCount()-len(state.baseline), o.cfg.ReconcileTolerance)
		yr.Variance = variance
		if variance.Flagged {
			if o.cfg.VarianceFatal {
				return count, &workforce.VarianceExceededError{Variance: variance}
			}
			log.Printf("year %d: %s (reported, not fatal)", year, variance)
		}
		log.Printf("year %d validated: events=%d snapshot_rows=%d ending_active=%d net=%+d",
			year, count, yr.SnapshotRows, state.snapshot.ActiveCount(), variance.Actual)
		return count, nil
	}
	return 0, fmt.Errorf("unknown step %s", step)
}

// loadBaseline returns the year's eligible population: the prior year's
// snapshot actives, or the seed baseline for the first year.
func (o *Orchestrator) loadBaseline(ctx context.Context, year int) ([]workforce.Employee, error) {
	prior, err := o.store.SnapshotForYear(ctx, year-1)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return prior.Actives(), nil
	}
	if year == o.cfg.StartYear && len(o.baseline) > 0 {
		return o.baseline, nil
	}
	return nil, &workforce.MissingPriorYearDataError{Year: year}
}

// recoverState rebuilds the intermediate products of an already-complete
// step so later steps can run after a resume.
func (o *Orchestrator) recoverState(ctx context.Context, year int, step Step, state *yearState) error {
	switch step {
	case StepWorkforceBaseline:
		baseline, err := o.loadBaseline(ctx, year)
		if err != nil {
			return err
		}
		state.baseline = baseline
	case StepWorkforceRequirements:
		req, err := workforce.Solve(year, len(state.baseline),
			o.cfg.TargetGrowthRate, o.cfg.TotalTerminationRate, o.cfg.NewHireTerminationRate)
		if err != nil {
			return err
		}
		state.req = req
	case StepWorkforceSnapshot:
		snapshot, err := o.store.SnapshotForYear(ctx, year)
		if err != nil {
			return err
		}
		if snapshot == nil {
			return &workforce.MissingPriorYearDataError{Year: year}
		}
		state.snapshot = snapshot
	}
	return nil
}
