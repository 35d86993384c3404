/*
config.go - Typed run configuration

PURPOSE:
  One strongly typed configuration struct for everything the solver, the
  hazard engine, and the generator consume, validated once at load time.
  A run never reads a raw map: every rate and threshold has a named field
  and a validated domain.
*/
package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/workforce-sim/hazard"
	"github.com/warp/workforce-sim/workforce"
)

// Config is the full configuration for one multi-year run.
type Config struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`

	// StartingHeadcount sizes the synthetic seed workforce when no prior
	// snapshot exists in the store.
	StartingHeadcount int `yaml:"starting_headcount"`

	TargetGrowthRate       float64 `yaml:"target_growth_rate"`
	TotalTerminationRate   float64 `yaml:"total_termination_rate"`
	NewHireTerminationRate float64 `yaml:"new_hire_termination_rate"`

	// ReconcileTolerance bounds |actual − expected| net change as a
	// fraction of starting headcount. Zero demands an exact landing.
	ReconcileTolerance float64 `yaml:"reconcile_tolerance"`

	// VarianceFatal promotes a flagged reconcile variance from a reported
	// record to a fatal VALIDATION_METRICS failure.
	VarianceFatal bool `yaml:"variance_fatal"`

	Hazard    hazard.Config             `yaml:"hazard"`
	Generator workforce.GeneratorConfig `yaml:"generator"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every bound once, at load. Detected problems are
// ConfigurationError: fatal, never clamped or retried.
func (c Config) Validate() error {
	if c.EndYear < c.StartYear {
		return &workforce.ConfigurationError{Field: "end_year", Value: c.EndYear,
			Reason: fmt.Sprintf("before start_year %d", c.StartYear)}
	}
	if c.TotalTerminationRate < 0 || c.TotalTerminationRate >= 1 {
		return &workforce.ConfigurationError{Field: "total_termination_rate", Value: c.TotalTerminationRate, Reason: "must be in [0, 1)"}
	}
	if c.NewHireTerminationRate < 0 || c.NewHireTerminationRate >= 1 {
		return &workforce.ConfigurationError{Field: "new_hire_termination_rate", Value: c.NewHireTerminationRate, Reason: "must be in [0, 1)"}
	}
	if c.TargetGrowthRate < -1 || c.TargetGrowthRate > 1 {
		return &workforce.ConfigurationError{Field: "target_growth_rate", Value: c.TargetGrowthRate, Reason: "must be in [-1, 1]"}
	}
	if c.ReconcileTolerance < 0 || c.ReconcileTolerance > 1 {
		return &workforce.ConfigurationError{Field: "reconcile_tolerance", Value: c.ReconcileTolerance, Reason: "must be in [0, 1]"}
	}
	if err := c.Hazard.Validate(); err != nil {
		return &workforce.ConfigurationError{Field: "hazard", Value: "", Reason: err.Error()}
	}
	return nil
}
