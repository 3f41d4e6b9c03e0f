package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// RunSink is a trace.EventSink writing one run's events. Record buffers;
// Flush writes the buffer in a single transaction.
type RunSink struct {
	store   *Store
	id      string
	ctx     context.Context
	pending []trace.Event
	written int64
}

var _ trace.EventSink = (*RunSink)(nil)

// ID returns the run identifier.
func (r *RunSink) ID() string { return r.id }

// Written returns how many events have been committed.
func (r *RunSink) Written() int64 { return r.written }

// Record buffers e until the next Flush.
func (r *RunSink) Record(e trace.Event) error {
	r.pending = append(r.pending, e)
	return nil
}

// Flush commits the buffered events. On failure nothing is committed and the
// buffer is kept.
func (r *RunSink) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.store.conn.BeginTxx(r.ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(r.ctx, `INSERT INTO events
		(run_id, tick, kind, subject, location, label, properties_json, weights_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare flush: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.pending {
		props, err := encode(e.Properties)
		if err != nil {
			return fmt.Errorf("encode properties of %s at tick %d: %w", e.Kind, e.Tick, err)
		}
		weights, err := encode(e.Weights)
		if err != nil {
			return fmt.Errorf("encode weights of %s at tick %d: %w", e.Kind, e.Tick, err)
		}
		if _, err := stmt.ExecContext(r.ctx, r.id, e.Tick, string(e.Kind), e.Subject, e.Location, e.Label, props, weights); err != nil {
			return fmt.Errorf("insert %s at tick %d: %w", e.Kind, e.Tick, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}

	logrus.Debugf("store: run %s flushed %d events", r.id, len(r.pending))
	r.written += int64(len(r.pending))
	r.pending = r.pending[:0]
	return nil
}

// Finish flushes and stores the number of ticks the run covered.
func (r *RunSink) Finish(ticks int64) error {
	if err := r.Flush(); err != nil {
		return err
	}
	if _, err := r.store.conn.ExecContext(r.ctx, "UPDATE runs SET ticks = ? WHERE id = ?", ticks, r.id); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// encode returns nil for empty maps so the column stays NULL.
func encode[M ~map[string]V, V any](m M) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
