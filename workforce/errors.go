/*
errors.go - Centralized error taxonomy for the simulation core

PURPOSE:
  All simulation error types in one place. Callers branch with errors.Is
  against the sentinels; the structured types carry the year, step, and
  employee context an operator needs to roll back and re-run.

ERROR CATEGORIES:
  1. ConfigurationError      - invalid rates/bounds; fatal, never retried
  2. StepSequenceError       - checklist prerequisite missing; recoverable
                               by completing prerequisites or --force-step
  3. DataIntegrityError      - NULL hire date, ambiguous duplicate,
                               overlapping periods; fatal, never auto-fixed
  4. VarianceExceededError   - realized vs. expected net change out of
                               tolerance; reported by default, optionally fatal
  5. MissingPriorYearDataError - no baseline for a non-first year; fatal

  Nothing here is retried automatically. All retries are operator-driven
  via checklist resume.
*/
package workforce

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrStepSequence     = errors.New("checklist step out of sequence")
	ErrDataIntegrity    = errors.New("data integrity violation")
	ErrVarianceExceeded = errors.New("variance exceeds tolerance")
	ErrMissingPriorYear = errors.New("missing prior year data")
)

// =============================================================================
// STRUCTURED ERRORS - Carry year/step/employee context
// =============================================================================

// ConfigurationError reports an invalid rate or bound detected at load or
// solve time. Fatal: bad inputs are rejected, never clamped.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// StepSequenceError reports an attempted checklist step whose prerequisites
// are not complete. Missing lists every unmet prerequisite, not just the
// first, so the operator sees the whole gap at once.
type StepSequenceError struct {
	Year    int
	Step    string
	Missing []string
}

func (e *StepSequenceError) Error() string {
	return fmt.Sprintf("year %d: step %s not ready, missing prerequisites: %s",
		e.Year, e.Step, strings.Join(e.Missing, ", "))
}

func (e *StepSequenceError) Unwrap() error { return ErrStepSequence }

// DataIntegrityError reports corrupt or ambiguous employee data. These are
// never auto-corrected; silent repairs are how headcount drifts.
type DataIntegrityError struct {
	Year       int
	EmployeeID EmployeeID
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	if e.EmployeeID != "" {
		return fmt.Sprintf("year %d: employee %s: %s", e.Year, e.EmployeeID, e.Reason)
	}
	return fmt.Sprintf("year %d: %s", e.Year, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// VarianceExceededError reports a realized net change outside tolerance.
type VarianceExceededError struct {
	Variance Variance
}

func (e *VarianceExceededError) Error() string {
	return "variance exceeded: " + e.Variance.String()
}

func (e *VarianceExceededError) Unwrap() error { return ErrVarianceExceeded }

// MissingPriorYearDataError reports a non-first year with no baseline.
type MissingPriorYearDataError struct {
	Year int
}

func (e *MissingPriorYearDataError) Error() string {
	return fmt.Sprintf("year %d: no prior-year snapshot or baseline found", e.Year)
}

func (e *MissingPriorYearDataError) Unwrap() error { return ErrMissingPriorYear }
