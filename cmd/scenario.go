package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/practice-sim/practice-sim/sim"
	"github.com/practice-sim/practice-sim/sim/trace"
)

// Scenario is the YAML description of a world and its agents.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Seed        int64          `yaml:"seed"`
	Ticks       int64          `yaml:"ticks"`
	DayLength   int64          `yaml:"day_length"`
	Selection   string         `yaml:"selection"`
	Squash      bool           `yaml:"squash"`
	Unregister  string         `yaml:"unregister"` // "abort" (default) or "reject"
	Weights     WeightRange    `yaml:"weights"`
	Durations   DurationSpec   `yaml:"durations"`
	Locations   []LocationSpec `yaml:"locations"`
	Connections [][]string     `yaml:"connections"` // pairs of location names
	Beds        []BedSpec      `yaml:"beds"`
	Features    []FeatureSpec  `yaml:"features"`
	Practices   []string       `yaml:"practices"`
	Agents      []AgentSpec    `yaml:"agents"`
}

// WeightRange bounds the uniform draw for initial weights and biases.
type WeightRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DurationSpec overrides the default practice durations, in ticks.
type DurationSpec struct {
	Idle     int64 `yaml:"idle"`
	Sleep    int64 `yaml:"sleep"`
	Interact int64 `yaml:"interact"`
}

type LocationSpec struct {
	Name          string `yaml:"name"`
	MinDwellTicks int64  `yaml:"min_dwell_ticks"`
	Transit       bool   `yaml:"transit"`
}

type BedSpec struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type FeatureSpec struct {
	Label     string `yaml:"label"`
	Type      string `yaml:"type"` // "scalar" or "categorical"
	Extractor string `yaml:"extractor"`
	Domain    Domain `yaml:"domain"`
	Nullable  bool   `yaml:"nullable"`
}

type AgentSpec struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
}

// Domain is a categorical feature's value list. In YAML it is either an
// explicit sequence or one of the keywords "locations", "practices", "beds".
type Domain struct {
	Values  []string
	Keyword string
}

// UnmarshalYAML accepts a sequence of strings or a keyword scalar.
func (d *Domain) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if !validDomainKeywords[value.Value] {
			return fmt.Errorf("line %d: unknown domain keyword %q (want locations, practices or beds)", value.Line, value.Value)
		}
		d.Keyword = value.Value
		return nil
	case yaml.SequenceNode:
		return value.Decode(&d.Values)
	default:
		return fmt.Errorf("line %d: domain must be a list or a keyword", value.Line)
	}
}

// validDomainKeywords maps domain shorthands. Unexported to prevent mutation.
var validDomainKeywords = map[string]bool{
	"locations": true,
	"practices": true,
	"beds":      true,
}

var validUnregister = map[string]sim.UnregisterPolicy{
	"":       sim.AbortPractice,
	"abort":  sim.AbortPractice,
	"reject": sim.RejectBusy,
}

// LoadScenario reads a scenario file with strict field checking: typos are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields the kernel does not check itself and fills the
// default weight range.
func (s *Scenario) Validate() error {
	if s.Ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", s.Ticks)
	}
	if s.DayLength < 0 {
		return fmt.Errorf("day_length must be >= 0, got %d", s.DayLength)
	}
	if !sim.IsValidSelectionPolicy(s.Selection) {
		return fmt.Errorf("unknown selection %q; valid: %v", s.Selection, sim.ValidSelectionPolicyNames())
	}
	if _, ok := validUnregister[s.Unregister]; !ok {
		return fmt.Errorf("unknown unregister policy %q; valid: abort, reject", s.Unregister)
	}
	if s.Weights == (WeightRange{}) {
		s.Weights = WeightRange{Min: -1, Max: 1}
	}
	if !(s.Weights.Max > s.Weights.Min) {
		return fmt.Errorf("weights: max (%g) must exceed min (%g)", s.Weights.Max, s.Weights.Min)
	}
	if len(s.Locations) == 0 {
		return fmt.Errorf("scenario needs at least one location")
	}
	if len(s.Agents) == 0 {
		return fmt.Errorf("scenario needs at least one agent")
	}
	for _, c := range s.Connections {
		if len(c) != 2 {
			return fmt.Errorf("connection %v must name exactly two locations", c)
		}
	}
	for _, f := range s.Features {
		switch f.Type {
		case "scalar":
			if len(f.Domain.Values) > 0 || f.Domain.Keyword != "" {
				return fmt.Errorf("feature %q: scalar features take no domain", f.Label)
			}
		case "categorical":
			if len(f.Domain.Values) == 0 && f.Domain.Keyword == "" {
				return fmt.Errorf("feature %q: categorical features need a domain", f.Label)
			}
		default:
			return fmt.Errorf("feature %q: unknown type %q (want scalar or categorical)", f.Label, f.Type)
		}
		if !sim.IsValidExtractor(f.Extractor) {
			return fmt.Errorf("feature %q: unknown extractor %q; valid: %v", f.Label, f.Extractor, sim.ValidExtractorNames())
		}
	}
	if len(s.Practices) > 0 && len(s.Features) == 0 {
		return fmt.Errorf("practices need at least one feature to be scored on")
	}
	return nil
}

// socialLabels returns the bound practice labels that are not built in.
func (s *Scenario) socialLabels() []string {
	out := make([]string, 0)
	for _, p := range s.Practices {
		switch p {
		case sim.LabelIdle, sim.LabelMoveToLocation, sim.LabelSleep:
		default:
			out = append(out, p)
		}
	}
	return out
}

func (s *Scenario) expand(d Domain) []string {
	switch d.Keyword {
	case "locations":
		out := make([]string, len(s.Locations))
		for i, l := range s.Locations {
			out[i] = l.Name
		}
		return out
	case "beds":
		out := make([]string, len(s.Beds))
		for i, b := range s.Beds {
			out[i] = b.Name
		}
		return out
	case "practices":
		out := []string{sim.LabelIdle}
		for _, p := range s.Practices {
			if p != sim.LabelIdle {
				out = append(out, p)
			}
		}
		return out
	default:
		return d.Values
	}
}

// Built is a world assembled from a scenario.
type Built struct {
	World  *sim.World
	Agents []*sim.Agent
}

// AgentNames returns the agents' names in registration order.
func (b *Built) AgentNames() []string {
	out := make([]string, len(b.Agents))
	for i, a := range b.Agents {
		out[i] = a.Name()
	}
	return out
}

// Build assembles the world: locations, edges, beds, the shared feature
// registry, then each agent with random weights for every listed practice.
func (s *Scenario) Build(sink trace.EventSink) (*Built, error) {
	w := sim.NewWorld(sim.WorldConfig{
		Seed:       s.Seed,
		Sink:       sink,
		DayLength:  s.DayLength,
		Unregister: validUnregister[s.Unregister],
	})

	for _, l := range s.Locations {
		if err := w.RegisterLocation(sim.NewLocation(l.Name, l.MinDwellTicks, l.Transit)); err != nil {
			return nil, err
		}
	}
	lookup := func(name string) (*sim.Location, error) {
		loc, ok := w.Location(name)
		if !ok {
			return nil, fmt.Errorf("unknown location %q", name)
		}
		return loc, nil
	}
	for _, c := range s.Connections {
		a, err := lookup(c[0])
		if err != nil {
			return nil, fmt.Errorf("connection %v: %w", c, err)
		}
		b, err := lookup(c[1])
		if err != nil {
			return nil, fmt.Errorf("connection %v: %w", c, err)
		}
		if err := w.Connect(a, b); err != nil {
			return nil, err
		}
	}
	for _, b := range s.Beds {
		loc, err := lookup(b.Location)
		if err != nil {
			return nil, fmt.Errorf("bed %q: %w", b.Name, err)
		}
		bed := sim.NewBed(b.Name)
		if err := w.RegisterEntity(bed); err != nil {
			return nil, err
		}
		if err := w.PlaceEntity(bed, loc); err != nil {
			return nil, err
		}
	}

	reg := sim.NewFeatureRegistry()
	bindings := make(map[string]string, len(s.Features))
	for _, f := range s.Features {
		var err error
		if f.Type == "scalar" {
			err = reg.RegisterScalar(f.Label)
		} else {
			err = reg.RegisterCategorical(f.Label, s.expand(f.Domain), f.Nullable)
		}
		if err != nil {
			return nil, err
		}
		bindings[f.Label] = f.Extractor
	}
	var spec *sim.ContextSpec
	if len(s.Features) > 0 {
		var err error
		if spec, err = sim.NewContextSpec(reg, bindings); err != nil {
			return nil, err
		}
	}

	built := &Built{World: w}
	weightRNG := w.RNG().ForSubsystem(sim.SubsystemWeights)
	for _, as := range s.Agents {
		start, err := lookup(as.Start)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", as.Name, err)
		}
		a, err := sim.NewAgent(as.Name, w, sim.AgentConfig{
			Selection:     sim.NewSelectionPolicy(s.Selection),
			Context:       spec,
			Squash:        s.Squash,
			IdleTicks:     s.Durations.Idle,
			SleepTicks:    s.Durations.Sleep,
			InteractTicks: s.Durations.Interact,
			Social:        s.socialLabels(),
		})
		if err != nil {
			return nil, err
		}
		if err := w.RegisterEntity(a); err != nil {
			return nil, err
		}
		if err := w.PlaceEntity(a, start); err != nil {
			return nil, err
		}
		if len(s.Practices) == 0 {
			logrus.Warnf("Agent %q has no bound weights; it will only ever idle", as.Name)
		}
		for _, label := range s.Practices {
			wv, err := sim.RandomWeightVector(reg, weightRNG, s.Weights.Min, s.Weights.Max)
			if err != nil {
				return nil, err
			}
			if err := a.BindWeights(label, wv); err != nil {
				return nil, err
			}
			logrus.Debugf("%s %s weights %s", a.Name(), label, wv)
		}
		built.Agents = append(built.Agents, a)
	}
	logrus.Infof("Built world: %d locations, %d beds, %d agents, %d features",
		len(s.Locations), len(s.Beds), len(s.Agents), len(s.Features))
	return built, nil
}
