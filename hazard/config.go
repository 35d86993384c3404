package hazard

import (
	"fmt"
)

// =============================================================================
// CONFIGURATION - Loaded once per run, immutable thereafter
// =============================================================================

// DefaultMaxProbability caps any single event probability. Multiplier stacks
// can otherwise push a probability past 1 and silently distort counts.
const DefaultMaxProbability = 0.5

// Config holds the full hazard model for one simulation run.
type Config struct {
	// Seed feeds every deterministic draw. Part of the reproducibility
	// contract: same (employee, year, seed) = same draw, always.
	Seed int64 `yaml:"seed"`

	// MaxProbability caps the post-multiplication probability.
	// Zero means DefaultMaxProbability.
	MaxProbability float64 `yaml:"max_probability"`

	Events map[EventKind]EventConfig `yaml:"events"`
}

// EventConfig is the hazard model for a single event kind.
type EventConfig struct {
	BaseRate          float64            `yaml:"base_rate"`
	LevelDampener     float64            `yaml:"level_dampener"`
	TenureMultipliers map[string]float64 `yaml:"tenure_multipliers"`
	AgeMultipliers    map[string]float64 `yaml:"age_multipliers"`
}

// Validate checks the configuration once at load time.
// Invalid configuration is fatal, never patched over.
func (c Config) Validate() error {
	if c.MaxProbability < 0 || c.MaxProbability > 1 {
		return fmt.Errorf("hazard: max_probability %v outside [0,1]", c.MaxProbability)
	}
	for kind, ec := range c.Events {
		if ec.BaseRate < 0 || ec.BaseRate > 1 {
			return fmt.Errorf("hazard: %s base_rate %v outside [0,1]", kind, ec.BaseRate)
		}
		if ec.LevelDampener < 0 {
			return fmt.Errorf("hazard: %s level_dampener %v is negative", kind, ec.LevelDampener)
		}
		for band, m := range ec.TenureMultipliers {
			if m < 0 {
				return fmt.Errorf("hazard: %s tenure multiplier for %q is negative", kind, band)
			}
		}
		for band, m := range ec.AgeMultipliers {
			if m < 0 {
				return fmt.Errorf("hazard: %s age multiplier for %q is negative", kind, band)
			}
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxProbability == 0 {
		c.MaxProbability = DefaultMaxProbability
	}
	return c
}
