// Package testutil provides shared test infrastructure for the practice
// simulator. It holds a canonical event log and assertion helpers used by the
// sim package tests and the sim/store tests.
package testutil

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// GoldenEvents returns a fixed event log covering every event kind, with and
// without properties and weights. Two agents: ann walks home→L2 and back,
// bob sleeps once.
func GoldenEvents() []trace.Event {
	return []trace.Event{
		trace.SalienceVectorRegistered(0, "ann", "MoveToLocation", map[string]trace.FeatureWeight{
			"target_home": {Weight: 0.5, Bias: -0.25},
			"target_L2":   {Weight: -0.75, Bias: 0.125},
		}),
		trace.SalienceVectorRegistered(0, "bob", "Sleep", map[string]trace.FeatureWeight{
			"time": {Weight: 2, Bias: 0},
		}),
		trace.PracticeStarted(1, "ann", "MoveToLocation", map[string]any{"destination": "L2"}),
		trace.PracticeStarted(1, "bob", "Sleep", map[string]any{"bed": "bed-1"}),
		trace.EnteredLocation(1, "ann", "L2"),
		trace.PracticeEnded(2, "ann", "MoveToLocation"),
		trace.PracticeStarted(3, "ann", "MoveToLocation", map[string]any{"destination": "home"}),
		trace.EnteredLocation(3, "ann", "home"),
		trace.PracticeEnded(4, "ann", "MoveToLocation"),
		trace.PracticeEnded(10, "bob", "Sleep"),
	}
}

// TempDB returns a fresh SQLite path inside the test's temporary directory.
func TempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "events.db")
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
