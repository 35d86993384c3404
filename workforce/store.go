/*
store.go - Persistence interfaces for events and snapshots

PURPOSE:
  Defines the tabular read/write contract between the simulation core and
  whatever executes and persists it. The core never assumes a query
  language - only these interfaces, keyed by simulation year.

APPEND-ONLY CONTRACT:
  Events are append-only: AppendEvents is the only row-level write, there
  is no update. Snapshots are materialized whole per year; a re-run of a
  rolled-back year overwrites that year's rows and nothing else. The one
  sanctioned correction path is PurgeYear, which removes a whole year so
  a rollback can be re-run; partial deletes do not exist.

ROW COUNTS:
  Writes return the row count actually persisted. The orchestrator's
  validation step compares these against the counts it expects - post-hoc
  count verification is the cheap end-to-end check that persistence and
  generation agree.

IMPLEMENTATIONS:
  - store/sqlite: embedded analytical store (production)
  - workforce/store: in-memory (tests, dev)
*/
package workforce

import "context"

// EventStore persists and reads the append-only events table,
// keyed by (employee_id, simulation_year, event_type, effective_date).
type EventStore interface {
	// AppendEvents persists a year's events atomically and returns the row
	// count. A duplicate event key is an error, never an overwrite.
	AppendEvents(ctx context.Context, events []Event) (int, error)

	// EventsForYear returns the year's events in deterministic order.
	EventsForYear(ctx context.Context, year int) ([]Event, error)

	// CountEvents returns the persisted event count for the year.
	CountEvents(ctx context.Context, year int) (int, error)
}

// SnapshotStore persists and reads year-end snapshots,
// keyed by (employee_id, simulation_year).
type SnapshotStore interface {
	// SaveSnapshot materializes the year's snapshot rows and returns the
	// row count. Re-materializing a year replaces that year's rows.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) (int, error)

	// SnapshotForYear returns the year's snapshot, or nil if none exists.
	SnapshotForYear(ctx context.Context, year int) (*Snapshot, error)
}

// Store is the full persistence surface the orchestrator drives.
type Store interface {
	EventStore
	SnapshotStore

	// PurgeYear removes the year's events and snapshot rows so a rolled-back
	// year can be regenerated. Returns the number of rows removed.
	PurgeYear(ctx context.Context, year int) (int, error)
}
