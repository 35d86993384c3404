/*
baseline.go - Synthetic starting workforce

PURPOSE:
  Builds a deterministic synthetic population to seed the first simulated
  year when no census upload or prior snapshot exists. Attributes are pure
  functions of the sequence number, so two runs with the same headcount
  start from the same workforce.
*/
package workforce

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SyntheticBaseline generates count employees active at the start of
// firstYear, with tenure, age, level, and compensation spread
// deterministically across the population.
func SyntheticBaseline(firstYear, count int, profile NewHireProfile) []Employee {
	profile = profile.withDefaults()
	out := make([]Employee, 0, count)
	for i := 0; i < count; i++ {
		tenure := i % 15
		age := profile.MinAge + tenure + i%(profile.MaxAge-profile.MinAge+1)
		level := profile.Levels[i%len(profile.Levels)] + tenure/5
		comp := profile.BaseCompensation.
			Add(profile.CompensationStep.Mul(decimal.NewFromInt(int64(level - 1)))).
			Mul(decimal.NewFromFloat(1 + 0.02*float64(tenure))).
			Round(2)
		out = append(out, Employee{
			ID:               EmployeeID(fmt.Sprintf("EMP-%05d", i+1)),
			BirthDate:        Date(firstYear-age, time.Month(i%12+1), 15),
			HireDate:         Date(firstYear-tenure-1, time.Month(i%12+1), 1),
			CompensationRate: comp,
			Level:            level,
			Status:           StatusActive,
		})
	}
	return out
}
