package trace

import "fmt"

// EventSink receives kernel events. The kernel never knows the storage medium;
// it calls Record for every transition and Flush at caller-controlled intervals.
type EventSink interface {
	Record(Event) error
	Flush() error
}

// TraceLevel controls which events reach the underlying sink.
type TraceLevel string

const (
	// TraceLevelNone disables recording (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelPractices records practice starts/ends and salience vectors only.
	TraceLevelPractices TraceLevel = "practices"
	// TraceLevelAll records every event, including movements.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelPractices: true,
	TraceLevelAll:       true,
	"":                  true, // empty defaults to all
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// WithLevel wraps sink so that only events admitted by level are recorded.
// Flush is always forwarded.
func WithLevel(sink EventSink, level TraceLevel) (EventSink, error) {
	if !IsValidTraceLevel(string(level)) {
		return nil, fmt.Errorf("unknown trace level %q", level)
	}
	switch level {
	case "", TraceLevelAll:
		return sink, nil
	case TraceLevelNone:
		return Discard, nil
	default:
		return &levelSink{next: sink, level: level}, nil
	}
}

type levelSink struct {
	next  EventSink
	level TraceLevel
}

func (s *levelSink) Record(e Event) error {
	if s.level == TraceLevelPractices && e.Kind == KindEntityEnteredLocation {
		return nil
	}
	return s.next.Record(e)
}

func (s *levelSink) Flush() error { return s.next.Flush() }

type discardSink struct{}

func (discardSink) Record(Event) error { return nil }
func (discardSink) Flush() error       { return nil }

// Discard drops every event.
var Discard EventSink = discardSink{}

// MemorySink buffers events in memory. Recorded events stay pending until
// Flush commits them; Query only sees committed events, mirroring a store
// that writes on commit.
type MemorySink struct {
	pending   []Event
	committed []Event
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		pending:   make([]Event, 0),
		committed: make([]Event, 0),
	}
}

// Record appends an event to the pending buffer.
func (m *MemorySink) Record(e Event) error {
	m.pending = append(m.pending, e)
	return nil
}

// Flush commits every pending event, preserving order.
func (m *MemorySink) Flush() error {
	m.committed = append(m.committed, m.pending...)
	m.pending = m.pending[:0]
	return nil
}

// Pending returns the number of recorded but uncommitted events.
func (m *MemorySink) Pending() int { return len(m.pending) }

// Events returns a copy of the committed events in record order.
func (m *MemorySink) Events() []Event {
	out := make([]Event, len(m.committed))
	copy(out, m.committed)
	return out
}

// Query returns the committed events that match f, in record order.
func (m *MemorySink) Query(f Filter) []Event {
	out := make([]Event, 0)
	for _, e := range m.committed {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Tee forwards every call to each sink in order. The first error stops the call.
func Tee(sinks ...EventSink) EventSink {
	return teeSink(sinks)
}

type teeSink []EventSink

func (t teeSink) Record(e Event) error {
	for _, s := range t {
		if err := s.Record(e); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) Flush() error {
	for _, s := range t {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}
