package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// Default practice durations, in ticks beyond the first.
const (
	DefaultIdleTicks  = 5
	DefaultSleepTicks = 8
)

// AgentState is the decision loop's state.
type AgentState int

const (
	// AgentIdle means no active practice; the next tick selects one.
	AgentIdle AgentState = iota
	// AgentExecuting means a practice is in progress.
	AgentExecuting
)

func (s AgentState) String() string {
	if s == AgentExecuting {
		return "executing"
	}
	return "idle"
}

// SalienceFunc turns a candidate's feature values into its salience.
// wv is nil for an unweighted Idle fallback.
type SalienceFunc func(label string, wv *WeightVector, values FeatureValues) (float64, error)

// CandidateGenerator adds caller-defined candidates to an agent's options.
type CandidateGenerator func(a *Agent, here *Location) ([]Practice, error)

// AgentConfig groups an agent's decision parameters.
//
// Zero practice durations select the defaults, so the shortest configurable
// duration is 1: a timed practice with duration d ends after d+1 ticks.
type AgentConfig struct {
	Selection     SelectionPolicy      // nil = softmax
	Context       *ContextSpec         // required once weights are bound
	Squash        bool                 // pass raw scores through Logistic before selection
	Salience      SalienceFunc         // overrides the weight-vector score when set
	IdleTicks     int64                // 0 = DefaultIdleTicks
	SleepTicks    int64                // 0 = DefaultSleepTicks
	InteractTicks int64                // 0 = DefaultInteractTicks
	Social        []string             // InteractWithOther labels offered every decision
	Generators    []CandidateGenerator // extra candidate sources
}

// Decision records the outcome of one selection, for inspection and debugging.
type Decision struct {
	Tick       int64
	Candidates []string // label[:target] per candidate
	Scores     []float64
	Chosen     int
}

// Agent is an active entity that repeatedly selects and executes practices.
type Agent struct {
	EntityBase
	world   *World
	cfg     AgentConfig
	weights map[string]*WeightVector
	order   []string // bound labels in binding order
	active  Practice
	rng     *rand.Rand
	last    *Decision
}

// NewAgent creates an agent. The agent still has to be registered and placed.
func NewAgent(name string, w *World, cfg AgentConfig) (*Agent, error) {
	if name == "" {
		return nil, configErr("new agent", ErrInvalidConfig, "agent must have a name")
	}
	if cfg.Selection == nil {
		cfg.Selection = NewSelectionPolicy("")
	}
	if cfg.IdleTicks == 0 {
		cfg.IdleTicks = DefaultIdleTicks
	}
	if cfg.SleepTicks == 0 {
		cfg.SleepTicks = DefaultSleepTicks
	}
	if cfg.InteractTicks == 0 {
		cfg.InteractTicks = DefaultInteractTicks
	}
	if cfg.IdleTicks < 0 || cfg.SleepTicks < 0 || cfg.InteractTicks < 0 {
		return nil, configErr("new agent", ErrInvalidConfig, "agent %q has negative practice durations", name)
	}
	for _, label := range cfg.Social {
		if label == "" || label == LabelIdle || label == LabelMoveToLocation || label == LabelSleep {
			return nil, configErr("new agent", ErrInvalidConfig, "agent %q: social label %q is reserved", name, label)
		}
	}
	return &Agent{
		EntityBase: NewEntityBase(name, nil),
		world:      w,
		cfg:        cfg,
		weights:    make(map[string]*WeightVector),
		rng:        w.rng.ForSubsystem(SubsystemSelection(name)),
	}, nil
}

// BindWeights attaches the weight vector scoring practices labelled label and
// records the one-off SalienceVectorRegistered event.
func (a *Agent) BindWeights(label string, wv *WeightVector) error {
	const op = "bind weights"
	if a.cfg.Context == nil {
		return configErr(op, ErrInvalidConfig, "agent %q has no context spec", a.Name())
	}
	if wv == nil || wv.Registry() != a.cfg.Context.Registry() {
		return configErr(op, ErrInvalidConfig, "agent %q: weights for %q use a different feature registry", a.Name(), label)
	}
	if _, ok := a.weights[label]; ok {
		return configErr(op, ErrDuplicate, "agent %q weights for %q", a.Name(), label)
	}
	a.weights[label] = wv
	a.order = append(a.order, label)
	return a.world.record(trace.SalienceVectorRegistered(a.world.clock, a.Name(), label, wv.Weights()))
}

// Weights returns the vector bound to label.
func (a *Agent) Weights(label string) (*WeightVector, bool) {
	wv, ok := a.weights[label]
	return wv, ok
}

// BoundLabels returns the labels with bound weights, in binding order.
func (a *Agent) BoundLabels() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// State returns whether the agent is idle or executing.
func (a *Agent) State() AgentState {
	if a.active != nil {
		return AgentExecuting
	}
	return AgentIdle
}

// Active returns the practice in progress, nil when idle.
func (a *Agent) Active() Practice { return a.active }

// LastDecision returns the most recent selection, nil before the first.
func (a *Agent) LastDecision() *Decision { return a.last }

// Tick drives the decision loop. Executing: end the practice if it has
// ended (selection resumes next tick), otherwise tick it. Idle: select a
// practice, enter it and give it its first tick.
func (a *Agent) Tick() error {
	if a.active != nil {
		if a.active.HasEnded() {
			p := a.active
			a.active = nil
			return p.Exit()
		}
		return a.active.Tick()
	}

	p, err := a.decide()
	if err != nil {
		return err
	}
	if err := p.Enter(); err != nil {
		return err
	}
	a.active = p
	if p.HasEnded() {
		return nil
	}
	return p.Tick()
}

func (a *Agent) busy() bool { return a.active != nil }

func (a *Agent) activeTarget() Entity {
	if a.active == nil {
		return nil
	}
	return a.active.TargetEntity()
}

func (a *Agent) abortPractice() error {
	p := a.active
	a.active = nil
	logrus.Debugf("[tick %07d] %s: aborting %s", a.world.clock, a.Name(), p.Label())
	return p.Exit()
}

// Candidates enumerates the practices available to the agent right now.
func (a *Agent) Candidates() ([]Practice, error) {
	here, err := a.world.LocationOf(a)
	if err != nil {
		return nil, err
	}
	if here == nil {
		return nil, invariantErr("candidates", ErrNotPlaced, "%q", a.Name())
	}

	out := []Practice{NewIdle(a, a.cfg.IdleTicks)}

	if _, ok := a.weights[LabelMoveToLocation]; ok {
		for _, loc := range a.world.locations {
			if loc == here || loc.IsTransit() {
				continue
			}
			out = append(out, NewMoveToLocation(a, loc))
		}
	}

	if _, ok := a.weights[LabelSleep]; ok {
		beds, err := a.freeBeds(here)
		if err != nil {
			return nil, err
		}
		for _, bed := range beds {
			out = append(out, NewSleep(a, bed, a.cfg.SleepTicks))
		}
	}

	for _, label := range a.cfg.Social {
		if _, ok := a.weights[label]; ok {
			out = append(out, NewInteractWithOther(a, label, a.cfg.InteractTicks))
		}
	}

	for _, gen := range a.cfg.Generators {
		extra, err := gen(a, here)
		if err != nil {
			return nil, err
		}
		out = append(out, extra...)
	}
	return out, nil
}

// freeBeds lists unoccupied bed objects at here, through the gated perception calls.
func (a *Agent) freeBeds(here *Location) ([]*Object, error) {
	present, err := a.world.EntitiesAt(a, here)
	if err != nil {
		return nil, err
	}
	beds := make([]*Object, 0)
	for _, e := range present {
		obj, ok := e.(*Object)
		if !ok {
			continue
		}
		isBed, err := a.world.Attribute(a, obj, AttrBed)
		if err != nil {
			return nil, err
		}
		if isBed != true {
			continue
		}
		occupied, err := a.world.Attribute(a, obj, AttrOccupied)
		if err != nil {
			return nil, err
		}
		if occupied != true {
			beds = append(beds, obj)
		}
	}
	return beds, nil
}

// Score computes the salience of one candidate.
func (a *Agent) Score(p Practice) (float64, error) {
	here, err := a.world.LocationOf(a)
	if err != nil {
		return 0, err
	}
	if here == nil {
		return 0, invariantErr("score", ErrNotPlaced, "%q", a.Name())
	}
	wv, bound := a.weights[p.Label()]
	if !bound && p.Label() != LabelIdle {
		return 0, configErr("score", ErrMissingWeight, "agent %q has no weights for %q", a.Name(), p.Label())
	}

	var values FeatureValues
	if a.cfg.Context != nil {
		values, err = a.cfg.Context.Build(DecisionContext{World: a.world, Agent: a, Location: here, Candidate: p})
		if err != nil {
			return 0, fmt.Errorf("agent %q candidate %s: %w", a.Name(), p.Label(), err)
		}
	}

	var score float64
	switch {
	case a.cfg.Salience != nil:
		score, err = a.cfg.Salience(p.Label(), wv, values)
	case wv != nil:
		score, err = wv.Score(values)
	}
	if err != nil {
		return 0, fmt.Errorf("agent %q candidate %s: %w", a.Name(), p.Label(), err)
	}
	if a.cfg.Squash {
		score = Logistic(score)
	}
	return score, nil
}

func (a *Agent) decide() (Practice, error) {
	candidates, err := a.Candidates()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, configErr("decide", ErrNoCandidates, "agent %q", a.Name())
	}
	scores := make([]float64, len(candidates))
	for i, p := range candidates {
		if scores[i], err = a.Score(p); err != nil {
			return nil, err
		}
	}
	chosen, err := a.cfg.Selection.Select(scores, a.rng)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", a.Name(), err)
	}

	d := &Decision{Tick: a.world.clock, Candidates: make([]string, len(candidates)), Scores: scores, Chosen: chosen}
	for i, p := range candidates {
		d.Candidates[i] = describe(p)
	}
	a.last = d
	logrus.Debugf("[tick %07d] %s selects %s (%s, score=%.3f of %d)",
		a.world.clock, a.Name(), d.Candidates[chosen], a.cfg.Selection.Name(), scores[chosen], len(candidates))
	return candidates[chosen], nil
}

func describe(p Practice) string {
	switch {
	case p.TargetLocation() != nil:
		return p.Label() + ":" + p.TargetLocation().Name()
	case p.TargetEntity() != nil:
		return p.Label() + ":" + p.TargetEntity().Name()
	default:
		return p.Label()
	}
}
