// Package store persists simulation events to SQLite and reads them back.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// Store wraps a SQLite connection holding one or more runs.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer; one connection also keeps in-memory databases shared.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ticks INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		properties_json TEXT,
		weights_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_run_subject ON events(run_id, subject);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Run describes one recorded simulation.
type Run struct {
	ID        string
	Seed      int64
	Scenario  string
	StartedAt time.Time
	Ticks     int64
	Events    int64
}

type runRow struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	Scenario  string `db:"scenario"`
	StartedAt int64  `db:"started_at"`
	Ticks     int64  `db:"ticks"`
	Events    int64  `db:"events"`
}

// NewRun registers a run and returns the sink that records its events.
func (s *Store) NewRun(ctx context.Context, seed int64, scenario string) (*RunSink, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO runs (id, seed, scenario, started_at) VALUES (?, ?, ?, ?)",
		id, seed, scenario, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	logrus.Debugf("store: created run %s (seed %d, scenario %q)", id, seed, scenario)
	return &RunSink{store: s, id: id, ctx: ctx}, nil
}

// Runs lists every run with its event count, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var rows []runRow
	err := s.conn.SelectContext(ctx, &rows, `
		SELECT r.id, r.seed, r.scenario, r.started_at, r.ticks, COUNT(e.id) AS events
		FROM runs r LEFT JOIN events e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at, r.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]Run, len(rows))
	for i, r := range rows {
		runs[i] = Run{
			ID:        r.ID,
			Seed:      r.Seed,
			Scenario:  r.Scenario,
			StartedAt: time.Unix(r.StartedAt, 0),
			Ticks:     r.Ticks,
			Events:    r.Events,
		}
	}
	return runs, nil
}

type eventRow struct {
	Tick       int64   `db:"tick"`
	Kind       string  `db:"kind"`
	Subject    string  `db:"subject"`
	Location   string  `db:"location"`
	Label      string  `db:"label"`
	Properties *string `db:"properties_json"`
	Weights    *string `db:"weights_json"`
}

// Query returns the events of one run matching f, in recording order.
func (s *Store) Query(ctx context.Context, runID string, f trace.Filter) ([]trace.Event, error) {
	where := []string{"run_id = ?"}
	args := []any{runID}
	if f.FromTick != nil {
		where = append(where, "tick >= ?")
		args = append(args, *f.FromTick)
	}
	if f.ToTick != nil {
		where = append(where, "tick <= ?")
		args = append(args, *f.ToTick)
	}
	if f.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, f.Subject)
	}
	if len(f.Kinds) > 0 {
		where = append(where, "kind IN (?)")
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, kinds)
	}

	query, args, err := sqlx.In(
		"SELECT tick, kind, subject, location, label, properties_json, weights_json FROM events WHERE "+
			strings.Join(where, " AND ")+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []eventRow
	if err := s.conn.SelectContext(ctx, &rows, s.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	events := make([]trace.Event, 0, len(rows))
	for _, r := range rows {
		e := trace.Event{
			Tick:     r.Tick,
			Kind:     trace.EventKind(r.Kind),
			Subject:  r.Subject,
			Location: r.Location,
			Label:    r.Label,
		}
		if r.Properties != nil {
			if err := json.Unmarshal([]byte(*r.Properties), &e.Properties); err != nil {
				return nil, fmt.Errorf("decode properties at tick %d: %w", r.Tick, err)
			}
		}
		if r.Weights != nil {
			if err := json.Unmarshal([]byte(*r.Weights), &e.Weights); err != nil {
				return nil, fmt.Errorf("decode weights at tick %d: %w", r.Tick, err)
			}
		}
		events = append(events, e)
	}
	return events, nil
}
