// dto.go - Request/response shapes for the automation surface.
package api

import (
	"github.com/warp/workforce-sim/sim"
	"github.com/warp/workforce-sim/workforce"
)

type StartRunRequest struct {
	ResumeFrom   int    `json:"resume_from,omitempty"`
	ValidateOnly bool   `json:"validate_only,omitempty"`
	ForceStep    string `json:"force_step,omitempty"`
}

type RunResponse struct {
	Result *sim.RunResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type ChecklistEntry struct {
	Year  int    `json:"year"`
	Step  string `json:"step"`
	State string `json:"state"` // pending | complete | skipped
}

type RollbackResponse struct {
	Year         int   `json:"year"`
	AlsoRollback []int `json:"also_rollback,omitempty"`
}

type SnapshotDTO struct {
	Year int              `json:"year"`
	Rows []SnapshotRowDTO `json:"rows"`
}

type SnapshotRowDTO struct {
	EmployeeID       string `json:"employee_id"`
	Status           string `json:"status"`
	DetailedStatus   string `json:"detailed_status"`
	HireDate         string `json:"hire_date"`
	TerminationDate  string `json:"termination_date,omitempty"`
	Level            int    `json:"level"`
	CompensationRate string `json:"compensation_rate"`
	ProratedComp     string `json:"prorated_compensation"`
}

func toSnapshotDTO(s *workforce.Snapshot) SnapshotDTO {
	dto := SnapshotDTO{Year: s.Year, Rows: make([]SnapshotRowDTO, 0, len(s.Rows))}
	for _, r := range s.Rows {
		row := SnapshotRowDTO{
			EmployeeID:       string(r.EmployeeID),
			Status:           string(r.Status),
			DetailedStatus:   string(r.DetailedStatus),
			HireDate:         r.HireDate.Format("2006-01-02"),
			Level:            r.Level,
			CompensationRate: r.CompensationRate.String(),
			ProratedComp:     r.ProratedComp.String(),
		}
		if r.TerminationDate != nil {
			row.TerminationDate = r.TerminationDate.Format("2006-01-02")
		}
		dto.Rows = append(dto.Rows, row)
	}
	return dto
}
