/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router and middleware for the automation surface.
  This is the wiring layer that connects URLs to handlers; everything the
  endpoints do maps one-to-one onto orchestrator operations.

ROUTE GROUPS:
  /api/runs                   Trigger and inspect simulation runs
  /api/checklist              Checklist step states
  /api/years/{year}/snapshot  Reconciled year-end snapshot
  /api/years/{year}/rollback  Reset a year for re-run

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/workforce/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", h.StartRun)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/checklist", h.GetChecklist)
		r.Get("/years/{year}/snapshot", h.GetSnapshot)
		r.Post("/years/{year}/rollback", h.RollbackYear)
	})

	return r
}
