// Package trace provides the event records emitted by the simulation kernel,
// the EventSink collaborator that receives them, and post-run summaries.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// EventKind names one of the four state transitions the kernel reports.
type EventKind string

const (
	KindEntityEnteredLocation    EventKind = "entity_entered_location"
	KindPracticeStarted          EventKind = "practice_started"
	KindPracticeEnded            EventKind = "practice_ended"
	KindSalienceVectorRegistered EventKind = "salience_vector_registered"
)

// validKinds maps accepted kind strings. Unexported to prevent mutation.
var validKinds = map[EventKind]bool{
	KindEntityEnteredLocation:    true,
	KindPracticeStarted:          true,
	KindPracticeEnded:            true,
	KindSalienceVectorRegistered: true,
}

// IsValidKind returns true if s names a known event kind.
func IsValidKind(s string) bool { return validKinds[EventKind(s)] }

// FeatureWeight is one weight/bias pair of a salience vector.
type FeatureWeight struct {
	Weight float64 `json:"weight"`
	Bias   float64 `json:"bias"`
}

// Event captures a single state transition.
// Only the fields relevant to Kind are populated.
type Event struct {
	Tick       int64                    `json:"tick"`
	Kind       EventKind                `json:"kind"`
	Subject    string                   `json:"subject"`              // entity name
	Location   string                   `json:"location,omitempty"`   // entered location
	Label      string                   `json:"label,omitempty"`      // practice label
	Properties map[string]any           `json:"properties,omitempty"` // practice start properties
	Weights    map[string]FeatureWeight `json:"weights,omitempty"`    // registered salience vector
}

// EnteredLocation builds an EntityEnteredLocation event.
func EnteredLocation(tick int64, entity, location string) Event {
	return Event{Tick: tick, Kind: KindEntityEnteredLocation, Subject: entity, Location: location}
}

// PracticeStarted builds a PracticeStarted event.
func PracticeStarted(tick int64, entity, label string, props map[string]any) Event {
	return Event{Tick: tick, Kind: KindPracticeStarted, Subject: entity, Label: label, Properties: props}
}

// PracticeEnded builds a PracticeEnded event.
func PracticeEnded(tick int64, entity, label string) Event {
	return Event{Tick: tick, Kind: KindPracticeEnded, Subject: entity, Label: label}
}

// SalienceVectorRegistered builds the one-off event emitted when weights are bound to an agent.
func SalienceVectorRegistered(tick int64, entity, label string, weights map[string]FeatureWeight) Event {
	return Event{Tick: tick, Kind: KindSalienceVectorRegistered, Subject: entity, Label: label, Weights: weights}
}

// Filter selects events for query-back. Nil tick bounds are open; an empty
// Kinds slice matches every kind; an empty Subject matches every entity.
type Filter struct {
	FromTick *int64
	ToTick   *int64
	Kinds    []EventKind
	Subject  string
}

// Match reports whether e passes the filter. Tick bounds are inclusive.
func (f Filter) Match(e Event) bool {
	if f.FromTick != nil && e.Tick < *f.FromTick {
		return false
	}
	if f.ToTick != nil && e.Tick > *f.ToTick {
		return false
	}
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}
