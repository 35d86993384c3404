/*
Package sqlite provides the SQLite-backed embedded analytical store.

PURPOSE:
  Implements workforce.Store on SQLite: the append-only events table and
  the per-year workforce snapshot table, plus the post-hoc count queries
  the validation step runs.

KEY TABLES:
  events:               append-only, keyed (employee_id, simulation_year,
                        event_type, effective_date)
  workforce_snapshots:  keyed (employee_id, simulation_year); a year's rows
                        are replaced whole when the year is re-materialized
                        after a rollback

SINGLE WRITER:
  The underlying store enforces one concurrent writer. Every write here
  runs inside a scoped transaction guarded by a mutex, released on all
  exit paths. Readers are not blocked (WAL mode).

APPEND-ONLY ENFORCEMENT:
  No UPDATE and no row-level DELETE exist for the events table. A
  duplicate event key fails the whole batch; corrections happen by rolling
  back the year (PurgeYear removes the whole year) and regenerating, never
  by editing individual history rows.

USAGE:
  store, err := sqlite.New("./data/workforce.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - workforce/store.go: Interface definitions
  - workforce/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/workforce-sim/workforce"
)

// Store implements workforce.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // single-writer guard
}

// New opens (or creates) the database. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Events (append-only)
	CREATE TABLE IF NOT EXISTS events (
		employee_id        TEXT NOT NULL,
		simulation_year    INTEGER NOT NULL,
		event_type         TEXT NOT NULL,
		effective_date     TEXT NOT NULL,
		birth_date         TEXT,
		new_level          INTEGER,
		new_compensation   TEXT,
		termination_reason TEXT,
		PRIMARY KEY (employee_id, simulation_year, event_type, effective_date)
	);
	CREATE INDEX IF NOT EXISTS idx_events_year ON events(simulation_year);

	-- Year-end snapshots
	CREATE TABLE IF NOT EXISTS workforce_snapshots (
		employee_id           TEXT NOT NULL,
		simulation_year       INTEGER NOT NULL,
		employment_status     TEXT NOT NULL,
		detailed_status       TEXT NOT NULL,
		birth_date            TEXT NOT NULL,
		hire_date             TEXT NOT NULL,
		termination_date      TEXT,
		level                 INTEGER NOT NULL,
		compensation_rate     TEXT NOT NULL,
		prorated_compensation TEXT NOT NULL,
		PRIMARY KEY (employee_id, simulation_year)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_year ON workforce_snapshots(simulation_year);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT STORE
// =============================================================================

// AppendEvents persists a year's events in one scoped transaction.
// A duplicate key fails the whole batch.
func (s *Store) AppendEvents(ctx context.Context, events []workforce.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (employee_id, simulation_year, event_type, effective_date,
		                    birth_date, new_level, new_compensation, termination_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx,
			string(ev.EmployeeID), ev.SimulationYear, string(ev.Type), formatDate(ev.EffectiveDate),
			nullableDate(ev.BirthDate), ev.NewLevel, ev.NewCompensation.String(), ev.TerminationReason)
		if err != nil {
			return 0, &workforce.DataIntegrityError{
				Year:       ev.SimulationYear,
				EmployeeID: ev.EmployeeID,
				Reason:     fmt.Sprintf("persist event %s: %v", ev.Key(), err),
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(events), nil
}

// EventsForYear returns the year's events in a deterministic order.
func (s *Store) EventsForYear(ctx context.Context, year int) ([]workforce.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, simulation_year, event_type, effective_date,
		       birth_date, new_level, new_compensation, termination_reason
		FROM events
		WHERE simulation_year = ?
		ORDER BY effective_date, employee_id, event_type`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []workforce.Event
	for rows.Next() {
		var (
			ev            workforce.Event
			empID, evType string
			effective     string
			birth         sql.NullString
			comp          string
		)
		if err := rows.Scan(&empID, &ev.SimulationYear, &evType, &effective, &birth, &ev.NewLevel, &comp, &ev.TerminationReason); err != nil {
			return nil, err
		}
		ev.EmployeeID = workforce.EmployeeID(empID)
		ev.Type = workforce.EventType(evType)
		if ev.EffectiveDate, err = parseDate(effective); err != nil {
			return nil, err
		}
		if birth.Valid && birth.String != "" {
			if ev.BirthDate, err = parseDate(birth.String); err != nil {
				return nil, err
			}
		}
		if ev.NewCompensation, err = decimal.NewFromString(comp); err != nil {
			return nil, fmt.Errorf("event %s: bad compensation %q: %w", ev.Key(), comp, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) CountEvents(ctx context.Context, year int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE simulation_year = ?`, year).Scan(&n)
	return n, err
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SaveSnapshot materializes the year's snapshot, replacing any prior
// materialization of the same year (the rollback/re-run path).
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *workforce.Snapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workforce_snapshots WHERE simulation_year = ?`, snapshot.Year); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO workforce_snapshots (employee_id, simulation_year, employment_status, detailed_status,
		                                 birth_date, hire_date, termination_date, level,
		                                 compensation_rate, prorated_compensation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range snapshot.Rows {
		var term any
		if r.TerminationDate != nil {
			term = formatDate(*r.TerminationDate)
		}
		_, err := stmt.ExecContext(ctx,
			string(r.EmployeeID), r.SimulationYear, string(r.Status), string(r.DetailedStatus),
			formatDate(r.BirthDate), formatDate(r.HireDate), term, r.Level,
			r.CompensationRate.String(), r.ProratedComp.String())
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(snapshot.Rows), nil
}

// SnapshotForYear returns the year's snapshot, or nil if the year was
// never materialized.
func (s *Store) SnapshotForYear(ctx context.Context, year int) (*workforce.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, simulation_year, employment_status, detailed_status,
		       birth_date, hire_date, termination_date, level,
		       compensation_rate, prorated_compensation
		FROM workforce_snapshots
		WHERE simulation_year = ?
		ORDER BY employee_id`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &workforce.Snapshot{Year: year}
	for rows.Next() {
		var (
			r                  workforce.SnapshotRow
			empID, st, det     string
			birth, hire        string
			term               sql.NullString
			compRate, prorated string
		)
		if err := rows.Scan(&empID, &r.SimulationYear, &st, &det, &birth, &hire, &term, &r.Level, &compRate, &prorated); err != nil {
			return nil, err
		}
		r.EmployeeID = workforce.EmployeeID(empID)
		r.Status = workforce.EmploymentStatus(st)
		r.DetailedStatus = workforce.DetailedStatus(det)
		if r.BirthDate, err = parseDate(birth); err != nil {
			return nil, err
		}
		if r.HireDate, err = parseDate(hire); err != nil {
			return nil, err
		}
		if term.Valid {
			d, err := parseDate(term.String)
			if err != nil {
				return nil, err
			}
			r.TerminationDate = &d
		}
		if r.CompensationRate, err = decimal.NewFromString(compRate); err != nil {
			return nil, err
		}
		if r.ProratedComp, err = decimal.NewFromString(prorated); err != nil {
			return nil, err
		}
		snapshot.Rows = append(snapshot.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshot.Rows) == 0 {
		return nil, nil
	}
	return snapshot, nil
}

// =============================================================================
// ROLLBACK
// =============================================================================

// PurgeYear removes the year's events and snapshot rows in one
// transaction. This is the rollback path; nothing else deletes.
func (s *Store) PurgeYear(ctx context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	total := 0
	for _, table := range []string{"events", "workforce_snapshots"} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE simulation_year = ?`, year)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// =============================================================================
// DATE HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatDate(t)
}
