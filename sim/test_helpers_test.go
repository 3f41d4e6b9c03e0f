package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// lineWorld builds L1-L2-...-Ln with the given per-location dwell times and
// a memory sink.
func lineWorld(t *testing.T, dwell ...int64) (*World, []*Location, *trace.MemorySink) {
	t.Helper()
	sink := trace.NewMemorySink()
	w := NewWorld(WorldConfig{Seed: 42, Sink: sink})
	locs := make([]*Location, len(dwell))
	for i, d := range dwell {
		locs[i] = NewLocation("L"+string(rune('1'+i)), d, false)
		require.NoError(t, w.RegisterLocation(locs[i]))
		if i > 0 {
			require.NoError(t, w.Connect(locs[i-1], locs[i]))
		}
	}
	return w, locs, sink
}

// placedAgent registers and places an agent at loc.
func placedAgent(t *testing.T, w *World, name string, loc *Location, cfg AgentConfig) *Agent {
	t.Helper()
	a, err := NewAgent(name, w, cfg)
	require.NoError(t, err)
	require.NoError(t, w.RegisterEntity(a))
	require.NoError(t, w.PlaceEntity(a, loc))
	return a
}

// placedObject registers and places an object at loc.
func placedObject(t *testing.T, w *World, o *Object, loc *Location) *Object {
	t.Helper()
	require.NoError(t, w.RegisterEntity(o))
	require.NoError(t, w.PlaceEntity(o, loc))
	return o
}

// practiceContext returns a spec with a single "practice" feature over labels.
func practiceContext(t *testing.T, labels ...string) *ContextSpec {
	t.Helper()
	reg := NewFeatureRegistry()
	require.NoError(t, reg.RegisterCategorical("practice", labels, false))
	spec, err := NewContextSpec(reg, map[string]string{"practice": "practice"})
	require.NoError(t, err)
	return spec
}

// targetContext returns a spec with a nullable "target" feature over the
// world's location names.
func targetContext(t *testing.T, w *World) *ContextSpec {
	t.Helper()
	names := make([]string, 0)
	for _, l := range w.Locations() {
		names = append(names, l.Name())
	}
	reg := NewFeatureRegistry()
	require.NoError(t, reg.RegisterCategorical("target", names, true))
	spec, err := NewContextSpec(reg, map[string]string{"target": "target-location"})
	require.NoError(t, err)
	return spec
}

func countKind(events []trace.Event, kind trace.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func names(locs []*Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Name()
	}
	return out
}

// bindCategorical binds weights for label that score weight when feature
// takes value, and leave every other value unweighted.
func bindCategorical(t *testing.T, a *Agent, label, feature, value string, weight float64) *WeightVector {
	t.Helper()
	wv := NewWeightVector(a.cfg.Context.Registry())
	require.NoError(t, wv.SetCategorical(feature, value, weight, 0))
	require.NoError(t, a.BindWeights(label, wv))
	return wv
}

// bindTargets binds MoveToLocation weights scoring each named destination.
func bindTargets(t *testing.T, a *Agent, scores map[string]float64) *WeightVector {
	t.Helper()
	wv := NewWeightVector(a.cfg.Context.Registry())
	for dest, s := range scores {
		require.NoError(t, wv.SetCategorical("target", dest, s, 0))
	}
	require.NoError(t, a.BindWeights(LabelMoveToLocation, wv))
	return wv
}
