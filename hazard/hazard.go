/*
Package hazard converts employee attributes into life-cycle event probabilities.

PURPOSE:
  Given an employee's age band, tenure band, and level, the engine computes
  the probability that a life-cycle event (termination, promotion, merit
  raise) occurs in a simulation year, and makes the occurrence decision
  with a deterministic pseudo-random draw.

THE MODEL:
  p = base_rate
      × tenure_multiplier[tenure_band]
      × age_multiplier[age_band]
      × max(0, 1 − level_dampener × (level − 1))

  capped at MaxProbability. Band keys the configuration has never seen map
  to a neutral multiplier of 1.0 - a new band in the data must widen the
  population, not crash the run.

DETERMINISM:
  The draw for (event kind, employee, year) is a pure function of
  (kind, employee_id, year, seed). The same inputs always produce the same
  draw, independent of call order. This is part of the public contract:
  recorded fixtures stay bit-reproducible across runs and across ports.

USAGE:
  engine, err := hazard.New(cfg)
  p := engine.Probability(hazard.KindTermination, attrs)
  if engine.Occurs(hazard.KindTermination, attrs, "EMP-0042", 2026) {
      // employee terminates this year
  }

SEE ALSO:
  - config.go: Configuration and validation
  - workforce/generator.go: The only production caller
*/
package hazard

import (
	"fmt"
	"hash/fnv"
)

// =============================================================================
// EVENT KINDS AND ATTRIBUTES
// =============================================================================

type EventKind string

const (
	KindTermination EventKind = "termination"
	KindPromotion   EventKind = "promotion"
	KindMeritRaise  EventKind = "merit_raise"
)

// Attributes are the employee characteristics the hazard model reads.
// Bands are open string sets: unknown values are neutral, never an error.
type Attributes struct {
	AgeBand    string
	TenureBand string
	Level      int
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes event probabilities and deterministic draws.
// Configuration is immutable after New.
type Engine struct {
	cfg Config
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.withDefaults()}, nil
}

// Probability returns the event probability for one employee, in [0, cap].
func (e *Engine) Probability(kind EventKind, attrs Attributes) float64 {
	ec, ok := e.cfg.Events[kind]
	if !ok {
		return 0
	}

	p := ec.BaseRate
	p *= multiplierOr1(ec.TenureMultipliers, attrs.TenureBand)
	p *= multiplierOr1(ec.AgeMultipliers, attrs.AgeBand)

	damp := 1 - ec.LevelDampener*float64(attrs.Level-1)
	if damp < 0 {
		damp = 0
	}
	p *= damp

	if p > e.cfg.MaxProbability {
		p = e.cfg.MaxProbability
	}
	if p < 0 {
		p = 0
	}
	return p
}

// Draw returns the deterministic pseudo-random value in [0, 1) for
// (kind, employeeID, year) under the configured seed.
//
// The key is hashed with FNV-1a and finalized with a splitmix64 mix.
// FNV-1a alone leaves trailing-byte changes in the low bits while the
// draw keeps the top 53, which would make seed and year changes nearly
// invisible; the finalizer spreads every input bit across the whole word.
// Both stages are part of the fixture contract: ports must reproduce the
// exact bit pattern.
func (e *Engine) Draw(kind EventKind, employeeID string, year int) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s|%s", e.cfg.Seed, year, kind, employeeID)
	// Top 53 bits give a uniform float64 in [0, 1).
	return float64(mix64(h.Sum64())>>11) / (1 << 53)
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Occurs decides whether the employee experiences the event this year:
// true iff draw < probability.
func (e *Engine) Occurs(kind EventKind, attrs Attributes, employeeID string, year int) bool {
	return e.Draw(kind, employeeID, year) < e.Probability(kind, attrs)
}

func multiplierOr1(m map[string]float64, band string) float64 {
	if v, ok := m[band]; ok {
		return v
	}
	return 1.0
}
