/*
requirements.go - Workforce requirements solver

PURPOSE:
  Converts a target growth rate into the exact hire and termination counts
  for one simulation year, accounting for new hires that themselves attrit
  before year end.

THE MATH:
  experienced_terminations = round(starting × total_termination_rate)
  target_ending            = round(starting × (1 + target_growth_rate))
  gross_hires              = ceil((target_ending − starting + experienced_terminations)
                                  / (1 − new_hire_termination_rate))

  Gross hires are grossed up by expected new-hire attrition so that the
  SURVIVING hires land the headcount on target.

AUDITABILITY:
  Every intermediate quantity is retained on the Requirement and logged.
  Past debugging has repeatedly come down to "the math was right, the
  inputs were stale" - the record must show the inputs it was solved from.
*/
package workforce

import (
	"log"
	"math"
)

// Solve computes the hire/termination plan for one year.
// Rates outside their valid domain are a ConfigurationError: a
// new_hire_termination_rate of 1 would divide by zero, and termination
// rates live in [0, 1).
func Solve(year, startingHeadcount int, targetGrowthRate, totalTerminationRate, newHireTerminationRate float64) (Requirement, error) {
	if startingHeadcount < 0 {
		return Requirement{}, &ConfigurationError{Field: "starting_headcount", Value: startingHeadcount, Reason: "must be non-negative"}
	}
	if totalTerminationRate < 0 || totalTerminationRate >= 1 {
		return Requirement{}, &ConfigurationError{Field: "total_termination_rate", Value: totalTerminationRate, Reason: "must be in [0, 1)"}
	}
	if newHireTerminationRate < 0 || newHireTerminationRate >= 1 {
		return Requirement{}, &ConfigurationError{Field: "new_hire_termination_rate", Value: newHireTerminationRate, Reason: "must be in [0, 1)"}
	}
	if targetGrowthRate < -1 || targetGrowthRate > 1 {
		return Requirement{}, &ConfigurationError{Field: "target_growth_rate", Value: targetGrowthRate, Reason: "must be in [-1, 1]"}
	}

	experienced := int(math.Round(float64(startingHeadcount) * totalTerminationRate))
	targetEnding := int(math.Round(float64(startingHeadcount) * (1 + targetGrowthRate)))

	netNeeded := targetEnding - startingHeadcount + experienced
	grossHires := 0
	if netNeeded > 0 {
		grossHires = int(math.Ceil(float64(netNeeded) / (1 - newHireTerminationRate)))
	}

	newHireLosses := int(math.Round(float64(grossHires) * newHireTerminationRate))
	expectedNet := grossHires - newHireLosses - experienced

	req := Requirement{
		SimulationYear:          year,
		StartingHeadcount:       startingHeadcount,
		TargetGrowthRate:        targetGrowthRate,
		TotalTerminationRate:    totalTerminationRate,
		NewHireTerminationRate:  newHireTerminationRate,
		TargetEndingHeadcount:   targetEnding,
		ExperiencedTerminations: experienced,
		GrossHires:              grossHires,
		ExpectedNewHireLosses:   newHireLosses,
		ExpectedNetChange:       expectedNet,
	}

	log.Printf("requirements year=%d starting=%d growth=%.4f term=%.4f nh_term=%.4f -> target_ending=%d experienced_terms=%d gross_hires=%d nh_losses=%d expected_net=%+d",
		year, startingHeadcount, targetGrowthRate, totalTerminationRate, newHireTerminationRate,
		targetEnding, experienced, grossHires, newHireLosses, expectedNet)

	return req, nil
}
