package sim

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
	"github.com/sirupsen/logrus"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// DefaultDayLength is the number of ticks in one simulated day.
const DefaultDayLength = 24

// UnregisterPolicy decides what happens when an agent with an active practice
// is unregistered.
type UnregisterPolicy int

const (
	// AbortPractice exits the active practice (recording its end and reverting
	// side effects such as bed occupancy) before removing the entity.
	AbortPractice UnregisterPolicy = iota
	// RejectBusy refuses to unregister an entity with an active practice.
	RejectBusy
)

// WorldConfig groups world construction parameters.
type WorldConfig struct {
	Seed       int64            // master seed for every random stream
	Sink       trace.EventSink  // receives events; nil = trace.Discard
	DayLength  int64            // ticks per day for time-of-day features (0 = DefaultDayLength)
	Unregister UnregisterPolicy // behaviour for busy entities on unregister
}

// practiceOwner is implemented by entities that drive practices.
type practiceOwner interface {
	busy() bool
	abortPractice() error
	// activeTarget is the entity the active practice is about, nil if none.
	activeTarget() Entity
}

// World owns the location graph, the entity registry and the clock.
//
// Thread-safety: NOT thread-safe. A world is driven by one goroutine calling Tick.
type World struct {
	clock int64

	locations []*Location
	locIndex  map[string]int
	adj       [][]int

	entities []Entity
	details  map[Entity]*EntityDetails
	names    map[string]Entity

	sink       trace.EventSink
	rng        *PartitionedRNG
	dayLength  int64
	unregister UnregisterPolicy
	weather    opensimplex.Noise
}

// NewWorld creates an empty world at tick 0.
func NewWorld(cfg WorldConfig) *World {
	sink := cfg.Sink
	if sink == nil {
		sink = trace.Discard
	}
	dayLength := cfg.DayLength
	if dayLength <= 0 {
		dayLength = DefaultDayLength
	}
	return &World{
		locIndex:   make(map[string]int),
		details:    make(map[Entity]*EntityDetails),
		names:      make(map[string]Entity),
		sink:       sink,
		rng:        NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		dayLength:  dayLength,
		unregister: cfg.Unregister,
	}
}

// Clock returns the current tick.
func (w *World) Clock() int64 { return w.clock }

// DayLength returns the number of ticks per simulated day.
func (w *World) DayLength() int64 { return w.dayLength }

// TimeOfDay returns the clock's position within the day, normalised to [0,1).
func (w *World) TimeOfDay() float64 {
	return float64(w.clock%w.dayLength) / float64(w.dayLength)
}

// RNG returns the world's partitioned random source.
func (w *World) RNG() *PartitionedRNG { return w.rng }

// Flush forwards to the event sink.
func (w *World) Flush() error {
	if err := w.sink.Flush(); err != nil {
		return fmt.Errorf("flush events at tick %d: %w", w.clock, err)
	}
	return nil
}

func (w *World) record(e trace.Event) error {
	if err := w.sink.Record(e); err != nil {
		return fmt.Errorf("record %s for %s: %w", e.Kind, e.Subject, err)
	}
	return nil
}

// === Entity registry ===

// RegisterEntity adds e to the world, unplaced. Names must be unique.
func (w *World) RegisterEntity(e Entity) error {
	const op = "register entity"
	if e == nil || e.Name() == "" {
		return configErr(op, ErrInvalidConfig, "entity must have a name")
	}
	if _, ok := w.details[e]; ok {
		return configErr(op, ErrDuplicate, "entity %q", e.Name())
	}
	if _, ok := w.names[e.Name()]; ok {
		return configErr(op, ErrDuplicate, "entity name %q", e.Name())
	}
	w.entities = append(w.entities, e)
	w.details[e] = &EntityDetails{}
	w.names[e.Name()] = e
	return nil
}

// UnregisterEntity removes e and its details. An active practice of e, and
// every other agent's practice targeting e, is handled according to the
// world's UnregisterPolicy.
func (w *World) UnregisterEntity(e Entity) error {
	const op = "unregister entity"
	if _, ok := w.details[e]; !ok {
		return configErr(op, ErrUnknownEntity, "%q", nameOf(e))
	}
	var affected []practiceOwner
	if owner, ok := e.(practiceOwner); ok && owner.busy() {
		affected = append(affected, owner)
	}
	for _, x := range w.entities {
		if owner, ok := x.(practiceOwner); ok && x != e && owner.activeTarget() == e {
			affected = append(affected, owner)
		}
	}
	if len(affected) > 0 && w.unregister == RejectBusy {
		return invariantErr(op, ErrEntityBusy, "%q is in use by an active practice", e.Name())
	}
	// Exits run while e is still registered so they can revert their side effects.
	for _, owner := range affected {
		if err := owner.abortPractice(); err != nil {
			return fmt.Errorf("%s %q: %w", op, e.Name(), err)
		}
	}
	for i, x := range w.entities {
		if x == e {
			w.entities = append(w.entities[:i], w.entities[i+1:]...)
			break
		}
	}
	delete(w.details, e)
	delete(w.names, e.Name())
	logrus.Debugf("[tick %07d] unregistered %s", w.clock, e.Name())
	return nil
}

// Entity looks a registered entity up by name.
func (w *World) Entity(name string) (Entity, bool) {
	e, ok := w.names[name]
	return e, ok
}

// Entities returns the registered entities in registration order.
func (w *World) Entities() []Entity {
	out := make([]Entity, len(w.entities))
	copy(out, w.entities)
	return out
}

// Details returns a copy of the world's bookkeeping for e.
func (w *World) Details(e Entity) (EntityDetails, error) {
	d, err := w.detailsOf("details", e)
	if err != nil {
		return EntityDetails{}, err
	}
	return *d, nil
}

func (w *World) detailsOf(op string, e Entity) (*EntityDetails, error) {
	d, ok := w.details[e]
	if !ok {
		return nil, configErr(op, ErrUnknownEntity, "%q", nameOf(e))
	}
	return d, nil
}

// PlaceEntity performs the first placement of e. No dwell time applies.
func (w *World) PlaceEntity(e Entity, loc *Location) error {
	const op = "place entity"
	d, err := w.detailsOf(op, e)
	if err != nil {
		return err
	}
	if _, err := w.locIdx(op, loc); err != nil {
		return err
	}
	if d.Location != nil {
		return configErr(op, ErrDuplicate, "%q already placed at %s", e.Name(), d.Location.name)
	}
	d.Location = loc
	d.TicksSinceLastMove = 0
	logrus.Debugf("[tick %07d] placed %s at %s", w.clock, e.Name(), loc.name)
	return nil
}

// LocationOf returns e's current location, nil if unplaced.
func (w *World) LocationOf(e Entity) (*Location, error) {
	d, err := w.detailsOf("location of", e)
	if err != nil {
		return nil, err
	}
	return d.Location, nil
}

// TicksSinceLastMove returns how long e has been at its current location.
func (w *World) TicksSinceLastMove(e Entity) (int64, error) {
	d, err := w.detailsOf("ticks since last move", e)
	if err != nil {
		return 0, err
	}
	return d.TicksSinceLastMove, nil
}

// MoveEntity moves e to an adjacent location once the current location's
// minimum dwell time has elapsed, and records the entry.
func (w *World) MoveEntity(e Entity, dest *Location) error {
	const op = "move entity"
	d, err := w.detailsOf(op, e)
	if err != nil {
		return err
	}
	if _, err := w.locIdx(op, dest); err != nil {
		return err
	}
	cur := d.Location
	if cur == nil {
		return invariantErr(op, ErrNotPlaced, "%q", e.Name())
	}
	if !w.IsAdjacent(cur, dest) {
		return invariantErr(op, ErrNotAdjacent, "%q from %s to %s", e.Name(), cur.name, dest.name)
	}
	if d.TicksSinceLastMove < cur.minDwellTicks {
		return invariantErr(op, ErrDwellTime, "%q at %s for %d of %d ticks",
			e.Name(), cur.name, d.TicksSinceLastMove, cur.minDwellTicks)
	}
	d.Location = dest
	d.TicksSinceLastMove = 0
	logrus.Debugf("[tick %07d] %s: %s -> %s", w.clock, e.Name(), cur.name, dest.name)
	return w.record(trace.EnteredLocation(w.clock, e.Name(), dest.name))
}

// === Perception ===

// EntitiesAt returns every entity at loc in registration order, perceiver
// included. The perceiver must itself be at loc.
func (w *World) EntitiesAt(perceiver Entity, loc *Location) ([]Entity, error) {
	const op = "entities at"
	d, err := w.detailsOf(op, perceiver)
	if err != nil {
		return nil, err
	}
	if _, err := w.locIdx(op, loc); err != nil {
		return nil, err
	}
	if d.Location == nil {
		return nil, invariantErr(op, ErrNotPlaced, "perceiver %q", perceiver.Name())
	}
	if d.Location != loc {
		return nil, invariantErr(op, ErrPerception, "%q at %s cannot perceive %s",
			perceiver.Name(), d.Location.name, loc.name)
	}
	out := make([]Entity, 0)
	for _, e := range w.entities {
		if w.details[e].Location == loc {
			out = append(out, e)
		}
	}
	return out, nil
}

// ChangeAttribute sets key on target's attribute map. Actor and target must be co-located.
func (w *World) ChangeAttribute(actor, target Entity, key string, value any) error {
	if err := w.colocated("change attribute", actor, target); err != nil {
		return err
	}
	target.base().attrs[key] = value
	return nil
}

// Attribute reads key from target's attribute map; nil when unset.
// Actor and target must be co-located.
func (w *World) Attribute(actor, target Entity, key string) (any, error) {
	if err := w.colocated("attribute", actor, target); err != nil {
		return nil, err
	}
	return target.base().attrs[key], nil
}

func (w *World) colocated(op string, actor, target Entity) error {
	da, err := w.detailsOf(op, actor)
	if err != nil {
		return err
	}
	dt, err := w.detailsOf(op, target)
	if err != nil {
		return err
	}
	if da.Location == nil {
		return invariantErr(op, ErrNotPlaced, "actor %q", actor.Name())
	}
	if dt.Location == nil {
		return invariantErr(op, ErrNotPlaced, "target %q", target.Name())
	}
	if da.Location != dt.Location {
		return invariantErr(op, ErrPerception, "%q at %s, %q at %s",
			actor.Name(), da.Location.name, target.Name(), dt.Location.name)
	}
	return nil
}

// === Time ===

// Tick advances the clock, ages every entity's dwell timer, then ticks every
// entity in registration order. The first entity error aborts the step.
func (w *World) Tick() error {
	w.clock++
	for _, e := range w.entities {
		w.details[e].TicksSinceLastMove++
	}
	// Entities may unregister others mid-step; iterate a snapshot and skip the removed.
	snapshot := w.Entities()
	for _, e := range snapshot {
		if _, ok := w.details[e]; !ok {
			continue
		}
		if err := e.Tick(); err != nil {
			return fmt.Errorf("tick %d: entity %q: %w", w.clock, e.Name(), err)
		}
	}
	logrus.Tracef("[tick %07d] stepped %d entities", w.clock, len(snapshot))
	return nil
}

// Run advances the world by n ticks, flushing the sink every flushEvery ticks
// (0 = only at the end).
func (w *World) Run(n, flushEvery int64) error {
	for i := int64(1); i <= n; i++ {
		if err := w.Tick(); err != nil {
			return err
		}
		if flushEvery > 0 && i%flushEvery == 0 {
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func nameOf(e Entity) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name()
}
