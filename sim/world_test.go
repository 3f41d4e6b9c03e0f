package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practice-sim/practice-sim/sim/trace"
)

func TestRegisterEntity_UniqueNames(t *testing.T) {
	w := NewWorld(WorldConfig{})
	bed := NewBed("bed")
	require.NoError(t, w.RegisterEntity(bed))

	assert.ErrorIs(t, w.RegisterEntity(bed), ErrDuplicate)
	assert.ErrorIs(t, w.RegisterEntity(NewBed("bed")), ErrDuplicate)
	assert.ErrorIs(t, w.RegisterEntity(NewBed("")), ErrInvalidConfig)

	got, ok := w.Entity("bed")
	assert.True(t, ok)
	assert.Same(t, bed, got)

	loc, err := w.LocationOf(bed)
	require.NoError(t, err)
	assert.Nil(t, loc, "registered entities start unplaced")
}

func TestPlaceEntity(t *testing.T) {
	w, locs, sink := lineWorld(t, 0, 0)
	bed := NewBed("bed")

	// Unregistered entity
	assert.ErrorIs(t, w.PlaceEntity(bed, locs[0]), ErrUnknownEntity)

	require.NoError(t, w.RegisterEntity(bed))
	assert.ErrorIs(t, w.PlaceEntity(bed, NewLocation("ghost", 0, false)), ErrUnknownLocation)
	require.NoError(t, w.PlaceEntity(bed, locs[0]))
	assert.ErrorIs(t, w.PlaceEntity(bed, locs[1]), ErrDuplicate)

	d, err := w.Details(bed)
	require.NoError(t, err)
	assert.Equal(t, locs[0], d.Location)
	assert.Zero(t, d.TicksSinceLastMove)

	require.NoError(t, w.Flush())
	assert.Empty(t, sink.Events(), "initial placement records no event")
}

func TestMoveEntity_Rules(t *testing.T) {
	// GIVEN L1-L2-L3 with L1 requiring 2 ticks of dwell
	w, locs, sink := lineWorld(t, 2, 0, 0)
	bed := placedObject(t, w, NewBed("cart"), locs[0])

	t.Run("dwell not elapsed", func(t *testing.T) {
		err := w.MoveEntity(bed, locs[1])
		assert.ErrorIs(t, err, ErrDwellTime)
		assert.True(t, IsInvariant(err))
	})

	require.NoError(t, w.Tick())
	require.NoError(t, w.Tick())

	t.Run("not adjacent", func(t *testing.T) {
		err := w.MoveEntity(bed, locs[2])
		assert.ErrorIs(t, err, ErrNotAdjacent)
		assert.True(t, IsInvariant(err))
	})

	t.Run("valid move resets the dwell counter", func(t *testing.T) {
		require.NoError(t, w.MoveEntity(bed, locs[1]))
		loc, _ := w.LocationOf(bed)
		assert.Equal(t, locs[1], loc)
		n, _ := w.TicksSinceLastMove(bed)
		assert.Zero(t, n)
	})

	t.Run("unplaced entity", func(t *testing.T) {
		ghost := NewBed("ghost")
		require.NoError(t, w.RegisterEntity(ghost))
		assert.ErrorIs(t, w.MoveEntity(ghost, locs[0]), ErrNotPlaced)
	})

	require.NoError(t, w.Flush())
	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, trace.KindEntityEnteredLocation, events[0].Kind)
	assert.Equal(t, "cart", events[0].Subject)
	assert.Equal(t, "L2", events[0].Location)
	assert.Equal(t, int64(2), events[0].Tick)
}

func TestPerception_CoLocationGate(t *testing.T) {
	// GIVEN an agent at L1, a bed at L1 and a bed at L2
	w, locs, _ := lineWorld(t, 0, 0)
	a := placedAgent(t, w, "ann", locs[0], AgentConfig{})
	near := placedObject(t, w, NewBed("near"), locs[0])
	far := placedObject(t, w, NewBed("far"), locs[1])

	// WHEN perceiving the own location THEN both co-located entities appear, self included
	here, err := w.EntitiesAt(a, locs[0])
	require.NoError(t, err)
	assert.Equal(t, []Entity{a, near}, here)

	// WHEN perceiving another location THEN the call is rejected
	_, err = w.EntitiesAt(a, locs[1])
	assert.ErrorIs(t, err, ErrPerception)

	// Attributes follow the same gate
	v, err := w.Attribute(a, near, AttrOccupied)
	require.NoError(t, err)
	assert.Equal(t, false, v)
	require.NoError(t, w.ChangeAttribute(a, near, AttrOccupied, true))
	v, _ = w.Attribute(a, near, AttrOccupied)
	assert.Equal(t, true, v)

	_, err = w.Attribute(a, far, AttrOccupied)
	assert.ErrorIs(t, err, ErrPerception)
	err = w.ChangeAttribute(a, far, AttrOccupied, true)
	assert.ErrorIs(t, err, ErrPerception)
	assert.True(t, IsInvariant(err))

	missing, err := w.Attribute(a, near, "colour")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTick_AdvancesClockAndDwell(t *testing.T) {
	w, locs, _ := lineWorld(t, 0)
	bed := placedObject(t, w, NewBed("bed"), locs[0])
	unplaced := NewBed("spare")
	require.NoError(t, w.RegisterEntity(unplaced))

	require.NoError(t, w.Run(3, 0))
	assert.Equal(t, int64(3), w.Clock())
	n, err := w.TicksSinceLastMove(bed)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

type tickRecorder struct {
	EntityBase
	log *[]string
	err error
}

func (r *tickRecorder) Tick() error {
	*r.log = append(*r.log, r.Name())
	return r.err
}

func TestTick_RegistrationOrderAndErrors(t *testing.T) {
	w := NewWorld(WorldConfig{})
	var log []string
	boom := errors.New("boom")
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, w.RegisterEntity(&tickRecorder{EntityBase: NewEntityBase(n, nil), log: &log}))
	}
	require.NoError(t, w.Tick())
	assert.Equal(t, []string{"c", "a", "b"}, log)

	bad := &tickRecorder{EntityBase: NewEntityBase("bad", nil), log: &log, err: boom}
	require.NoError(t, w.RegisterEntity(bad))
	err := w.Tick()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `entity "bad"`)
}

func TestTimeOfDay(t *testing.T) {
	w := NewWorld(WorldConfig{DayLength: 4})
	assert.Equal(t, 0.0, w.TimeOfDay())
	require.NoError(t, w.Run(6, 0))
	assert.InDelta(t, 0.5, w.TimeOfDay(), 1e-12)
	assert.Equal(t, int64(DefaultDayLength), NewWorld(WorldConfig{}).DayLength())
}

func TestWeather_DeterministicAndBounded(t *testing.T) {
	w1, locs1, _ := lineWorld(t, 0, 0)
	w2, locs2, _ := lineWorld(t, 0, 0)
	for i := 0; i < 30; i++ {
		v := w1.Weather(locs1[1])
		assert.Equal(t, v, w2.Weather(locs2[1]))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		require.NoError(t, w1.Tick())
		require.NoError(t, w2.Tick())
	}
}

func TestUnregisterEntity_AbortPractice(t *testing.T) {
	// GIVEN an agent sleeping in a bed under the default policy
	w, locs, sink := lineWorld(t, 0)
	bed := placedObject(t, w, NewBed("bed"), locs[0])
	a := placedAgent(t, w, "sam", locs[0], AgentConfig{
		Selection: NewSelectionPolicy("greedy"),
		Context:   practiceContext(t, LabelIdle, LabelSleep),
	})
	bindCategorical(t, a, LabelSleep, "practice", LabelSleep, 10)
	require.NoError(t, w.Tick())
	require.Equal(t, LabelSleep, a.Active().Label())

	// WHEN it is unregistered
	require.NoError(t, w.UnregisterEntity(a))

	// THEN the practice was exited, the bed freed and the entity removed
	assert.Nil(t, a.Active())
	_, ok := w.Entity("sam")
	assert.False(t, ok)
	assert.Equal(t, []Entity{bed}, w.Entities())
	occ := bed.attrs[AttrOccupied]
	assert.Equal(t, false, occ)
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, countKind(sink.Events(), trace.KindPracticeEnded))

	// Further ticks skip the removed agent.
	require.NoError(t, w.Tick())
	assert.ErrorIs(t, w.UnregisterEntity(a), ErrUnknownEntity)
}

func TestUnregisterEntity_RejectBusy(t *testing.T) {
	sink := trace.NewMemorySink()
	w := NewWorld(WorldConfig{Sink: sink, Unregister: RejectBusy})
	home := NewLocation("home", 0, false)
	require.NoError(t, w.RegisterLocation(home))
	a := placedAgent(t, w, "sam", home, AgentConfig{})
	require.NoError(t, w.Tick())
	require.Equal(t, AgentExecuting, a.State())

	err := w.UnregisterEntity(a)
	assert.ErrorIs(t, err, ErrEntityBusy)
	assert.True(t, IsInvariant(err))
	_, ok := w.Entity("sam")
	assert.True(t, ok)

	// Idle agents and objects unregister normally.
	bed := placedObject(t, w, NewBed("bed"), home)
	assert.NoError(t, w.UnregisterEntity(bed))
}

func TestUnregisterEntity_TargetOfActivePractice(t *testing.T) {
	tests := []struct {
		name   string
		policy UnregisterPolicy
	}{
		{"abort practice", AbortPractice},
		{"reject busy", RejectBusy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN an agent sleeping in a bed
			sink := trace.NewMemorySink()
			w := NewWorld(WorldConfig{Seed: 42, Sink: sink, Unregister: tc.policy})
			home := NewLocation("home", 0, false)
			require.NoError(t, w.RegisterLocation(home))
			bed := placedObject(t, w, NewBed("bed"), home)
			a := placedAgent(t, w, "sleeper", home, AgentConfig{
				Selection: NewSelectionPolicy("greedy"),
				Context:   practiceContext(t, LabelIdle, LabelSleep),
			})
			bindCategorical(t, a, LabelSleep, "practice", LabelSleep, 10)
			require.NoError(t, w.Run(3, 0))
			require.Equal(t, LabelSleep, a.Active().Label())

			// WHEN the bed is unregistered
			err := w.UnregisterEntity(bed)

			if tc.policy == RejectBusy {
				// THEN the bed stays and the sleeper keeps sleeping
				assert.ErrorIs(t, err, ErrEntityBusy)
				assert.True(t, IsInvariant(err))
				_, ok := w.Entity("bed")
				assert.True(t, ok)
				assert.Equal(t, LabelSleep, a.Active().Label())
				return
			}

			// THEN the sleep was exited before the bed went away
			require.NoError(t, err)
			_, ok := w.Entity("bed")
			assert.False(t, ok)
			assert.Nil(t, a.Active())
			assert.Equal(t, false, bed.attrs[AttrOccupied])

			// AND later ticks run cleanly with Idle as the only choice
			require.NoError(t, w.Run(5, 0))
			assert.Equal(t, LabelIdle, a.Active().Label())
			ended := sink.Query(trace.Filter{Kinds: []trace.EventKind{trace.KindPracticeEnded}, Subject: "sleeper"})
			require.NotEmpty(t, ended)
			assert.Equal(t, LabelSleep, ended[0].Label)
			assert.Equal(t, int64(3), ended[0].Tick)
		})
	}
}
