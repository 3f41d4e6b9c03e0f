package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// PracticeKind is the closed set of practice implementations.
type PracticeKind int

const (
	PracticeIdle PracticeKind = iota
	PracticeMove
	PracticeSleep
	PracticeInteract
)

func (k PracticeKind) String() string {
	switch k {
	case PracticeIdle:
		return "idle"
	case PracticeMove:
		return "move"
	case PracticeSleep:
		return "sleep"
	case PracticeInteract:
		return "interact"
	default:
		return "unknown"
	}
}

// Built-in practice labels. Social practices use caller-chosen labels.
const (
	LabelIdle           = "Idle"
	LabelMoveToLocation = "MoveToLocation"
	LabelSleep          = "Sleep"
)

// Practice is one unit of agent behaviour, bound to its owner and the world.
//
// Lifecycle: Enter once, Tick zero or more times while HasEnded is false,
// Exit once. An instance is never re-entered after Exit.
type Practice interface {
	Label() string
	Kind() PracticeKind
	Enter() error
	Tick() error
	Exit() error
	HasEnded() bool
	// Properties are recorded with the start event.
	Properties() map[string]any
	// TargetLocation is the location the practice is about, nil if none.
	TargetLocation() *Location
	// TargetEntity is the entity the practice is about, nil if none.
	TargetEntity() Entity
}

// practiceBase carries what every practice shares and records start/end events.
type practiceBase struct {
	owner *Agent
	world *World
	label string
}

func (p *practiceBase) Label() string             { return p.label }
func (p *practiceBase) TargetLocation() *Location { return nil }
func (p *practiceBase) TargetEntity() Entity      { return nil }

func (p *practiceBase) started(props map[string]any) error {
	logrus.Debugf("[tick %07d] %s starts %s %v", p.world.clock, p.owner.Name(), p.label, props)
	return p.world.record(trace.PracticeStarted(p.world.clock, p.owner.Name(), p.label, props))
}

func (p *practiceBase) ended() error {
	logrus.Debugf("[tick %07d] %s ends %s", p.world.clock, p.owner.Name(), p.label)
	return p.world.record(trace.PracticeEnded(p.world.clock, p.owner.Name(), p.label))
}

// timer counts ticks for practices that end after a fixed duration.
type timer struct {
	elapsed  int64
	duration int64
}

func (t *timer) tick()          { t.elapsed++ }
func (t *timer) done() bool     { return t.elapsed > t.duration }
func (t *timer) reset()         { t.elapsed = 0 }
func (t *timer) Elapsed() int64 { return t.elapsed }
