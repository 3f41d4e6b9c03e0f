package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practice-sim/practice-sim/sim/trace"
)

func TestPracticeKind_String(t *testing.T) {
	assert.Equal(t, "idle", PracticeIdle.String())
	assert.Equal(t, "move", PracticeMove.String())
	assert.Equal(t, "sleep", PracticeSleep.String())
	assert.Equal(t, "interact", PracticeInteract.String())
	assert.Equal(t, "unknown", PracticeKind(9).String())
}

func TestMoveToLocation_Lifecycle(t *testing.T) {
	w, locs, sink := lineWorld(t, 0, 0, 0)
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})
	m := NewMoveToLocation(a, locs[2])

	require.NoError(t, m.Enter())
	assert.Equal(t, []string{"L1", "L2", "L3"}, names(m.Path()))
	assert.False(t, m.HasEnded())

	// No tick has passed since placement, so the walker waits.
	require.NoError(t, m.Tick())
	loc, _ := w.LocationOf(a)
	assert.Equal(t, locs[0], loc)

	w.details[a].TicksSinceLastMove = 1
	require.NoError(t, m.Tick())
	w.details[a].TicksSinceLastMove = 1
	require.NoError(t, m.Tick())
	assert.True(t, m.HasEnded())
	require.NoError(t, m.Exit())
	assert.Nil(t, m.Path())

	require.NoError(t, w.Flush())
	events := sink.Events()
	kinds := make([]trace.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []trace.EventKind{
		trace.KindPracticeStarted,
		trace.KindEntityEnteredLocation,
		trace.KindEntityEnteredLocation,
		trace.KindPracticeEnded,
	}, kinds)
}

func TestMoveToLocation_ReroutesWhenOffPath(t *testing.T) {
	// GIVEN a walker entered on L1-L2-L3-L4
	w, locs, _ := lineWorld(t, 0, 0, 0, 0)
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})
	m := NewMoveToLocation(a, locs[3])
	require.NoError(t, m.Enter())

	// WHEN the agent ends up at L3, off a stale plan
	w.details[a].Location = locs[2]
	w.details[a].TicksSinceLastMove = 1
	m.path = []*Location{locs[0], locs[1]}

	// THEN the next tick replans from L3 and reaches L4
	require.NoError(t, m.Tick())
	assert.True(t, m.HasEnded())
	assert.Equal(t, []string{"L3", "L4"}, names(m.Path()))
}

func TestMoveToLocation_UnreachableDestination(t *testing.T) {
	w, locs, _ := lineWorld(t, 0)
	island := NewLocation("island", 0, false)
	require.NoError(t, w.RegisterLocation(island))
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})

	err := NewMoveToLocation(a, island).Enter()
	assert.True(t, IsUnreachable(err))
}

func TestSleep_Lifecycle(t *testing.T) {
	w, locs, _ := lineWorld(t, 0, 0)
	bed := placedObject(t, w, NewBed("bed"), locs[0])
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})
	b := placedAgent(t, w, "bob", locs[0], AgentConfig{})

	s := NewSleep(a, bed, 2)
	assert.Equal(t, PracticeSleep, s.Kind())
	assert.Equal(t, map[string]any{"bed": "bed"}, s.Properties())
	require.NoError(t, s.Enter())

	// A second sleeper is refused.
	err := NewSleep(b, bed, 2).Enter()
	assert.ErrorIs(t, err, ErrEntityBusy)

	for i := 0; i < 3; i++ {
		assert.False(t, s.HasEnded())
		require.NoError(t, s.Tick())
	}
	assert.True(t, s.HasEnded())
	assert.Equal(t, int64(3), s.Elapsed())
	require.NoError(t, s.Exit())
	v, _ := w.Attribute(a, bed, AttrOccupied)
	assert.Equal(t, false, v)
}

func TestSleep_RequiresCoLocation(t *testing.T) {
	w, locs, _ := lineWorld(t, 0, 0)
	bed := placedObject(t, w, NewBed("bed"), locs[1])
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})

	err := NewSleep(a, bed, 1).Enter()
	assert.ErrorIs(t, err, ErrPerception)
}

func TestInteractWithOther_DefaultDuration(t *testing.T) {
	w, locs, _ := lineWorld(t, 0)
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})
	p := NewInteractWithOther(a, "Chat", DefaultInteractTicks)
	require.NoError(t, p.Enter())
	for i := 0; i < DefaultInteractTicks; i++ {
		require.NoError(t, p.Tick())
	}
	assert.False(t, p.HasEnded())
	require.NoError(t, p.Tick())
	assert.True(t, p.HasEnded())
	assert.Equal(t, "Chat", p.Label())
	assert.Nil(t, p.TargetLocation())
	assert.Nil(t, p.TargetEntity())
}
