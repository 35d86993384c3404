/*
handlers.go - HTTP handlers for the automation surface

PURPOSE:
  Exposes the orchestrator over HTTP for schedulers and tooling. The
  handler owns one orchestrator (one checklist context) per server
  process; runs execute synchronously and their results are retained
  in memory for later inspection.
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/workforce-sim/sim"
	"github.com/warp/workforce-sim/workforce"
)

type Handler struct {
	store workforce.Store
	orch  *sim.Orchestrator
	cfg   sim.Config

	mu   sync.Mutex
	runs map[string]*sim.RunResult
}

func NewHandler(cfg sim.Config, store workforce.Store, orch *sim.Orchestrator) *Handler {
	return &Handler{
		store: store,
		orch:  orch,
		cfg:   cfg,
		runs:  make(map[string]*sim.RunResult),
	}
}

// StartRun triggers a simulation run. Runs are serialized: the checklist
// and the store's writer are both single-context resources.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := sim.Options{ResumeFrom: req.ResumeFrom, ValidateOnly: req.ValidateOnly}
	if req.ForceStep != "" {
		step, ok := sim.ParseStep(req.ForceStep)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown step "+req.ForceStep)
			return
		}
		opts.ForceStep = step
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.orch.Run(r.Context(), opts)
	if result != nil {
		h.runs[result.RunID] = result
	}
	if err != nil {
		writeJSON(w, statusFor(err), RunResponse{Result: result, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Result: result})
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	result, ok := h.runs[chi.URLParam(r, "id")]
	h.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Result: result})
}

func (h *Handler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl := h.orch.Checklist()
	var out []ChecklistEntry
	for year := h.cfg.StartYear; year <= h.cfg.EndYear; year++ {
		for _, step := range sim.StepOrder {
			state := "pending"
			switch {
			case !cl.Required(year, step):
				state = "skipped"
			case cl.IsComplete(year, step):
				state = "complete"
			}
			out = append(out, ChecklistEntry{Year: year, Step: string(step), State: state})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	snapshot, err := h.store.SnapshotForYear(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshot == nil {
		writeError(w, http.StatusNotFound, "no snapshot for year "+strconv.Itoa(year))
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snapshot))
}

func (h *Handler) RollbackYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	h.mu.Lock()
	affected, err := h.orch.RollbackYear(r.Context(), year)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RollbackResponse{Year: year, AlsoRollback: affected})
}

// =============================================================================
// HELPERS
// =============================================================================

func statusFor(err error) int {
	switch {
	case errors.Is(err, workforce.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, workforce.ErrStepSequence):
		return http.StatusConflict
	case errors.Is(err, workforce.ErrMissingPriorYear):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
