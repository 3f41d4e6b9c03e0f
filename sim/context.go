package sim

import (
	"fmt"
	"sort"
)

// DecisionContext is what an extractor may look at when an agent evaluates
// one candidate.
type DecisionContext struct {
	World     *World
	Agent     *Agent
	Location  *Location // agent's current location
	Candidate Practice
}

// Extractor computes one feature value for a candidate.
type Extractor struct {
	Type FeatureType
	Fn   func(dc DecisionContext) (Value, error)
}

// builtinExtractors maps extractor names to implementations. Unexported to prevent mutation.
var builtinExtractors = map[string]Extractor{
	"time-of-day": {Type: FeatureScalar, Fn: func(dc DecisionContext) (Value, error) {
		return Scalar(dc.World.TimeOfDay()), nil
	}},
	"current-location": {Type: FeatureCategorical, Fn: func(dc DecisionContext) (Value, error) {
		return Category(dc.Location.Name()), nil
	}},
	"target-location": {Type: FeatureCategorical, Fn: func(dc DecisionContext) (Value, error) {
		if t := dc.Candidate.TargetLocation(); t != nil {
			return Category(t.Name()), nil
		}
		return Null(), nil
	}},
	"target-entity": {Type: FeatureCategorical, Fn: func(dc DecisionContext) (Value, error) {
		if t := dc.Candidate.TargetEntity(); t != nil {
			return Category(t.Name()), nil
		}
		return Null(), nil
	}},
	"practice": {Type: FeatureCategorical, Fn: func(dc DecisionContext) (Value, error) {
		return Category(dc.Candidate.Label()), nil
	}},
	"nearby-agents": {Type: FeatureScalar, Fn: func(dc DecisionContext) (Value, error) {
		here, err := dc.World.EntitiesAt(dc.Agent, dc.Location)
		if err != nil {
			return Value{}, err
		}
		n := 0
		for _, e := range here {
			if _, ok := e.(*Agent); ok && e != Entity(dc.Agent) {
				n++
			}
		}
		return Scalar(float64(n)), nil
	}},
	"weather": {Type: FeatureScalar, Fn: func(dc DecisionContext) (Value, error) {
		return Scalar(dc.World.Weather(dc.Location)), nil
	}},
}

// IsValidExtractor returns true if name is a built-in extractor.
func IsValidExtractor(name string) bool {
	_, ok := builtinExtractors[name]
	return ok
}

// ValidExtractorNames returns sorted built-in extractor names.
func ValidExtractorNames() []string {
	names := make([]string, 0, len(builtinExtractors))
	for n := range builtinExtractors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ContextSpec binds every feature of a registry to an extractor.
type ContextSpec struct {
	registry   *FeatureRegistry
	extractors map[string]Extractor
}

// NewContextSpec binds features to built-in extractors by name. Every feature
// in reg must be bound and the extractor's type must match the feature's.
func NewContextSpec(reg *FeatureRegistry, bindings map[string]string) (*ContextSpec, error) {
	custom := make(map[string]Extractor, len(bindings))
	for label, name := range bindings {
		ex, ok := builtinExtractors[name]
		if !ok {
			return nil, configErr("context spec", ErrInvalidConfig, "feature %q: unknown extractor %q", label, name)
		}
		custom[label] = ex
	}
	return NewCustomContextSpec(reg, custom)
}

// NewCustomContextSpec binds features to caller-supplied extractors.
func NewCustomContextSpec(reg *FeatureRegistry, extractors map[string]Extractor) (*ContextSpec, error) {
	const op = "context spec"
	for label, ex := range extractors {
		def, ok := reg.Feature(label)
		if !ok {
			return nil, configErr(op, ErrUnknownFeature, "extractor bound to undeclared feature %q", label)
		}
		if def.Type != ex.Type {
			return nil, configErr(op, ErrFeatureType, "feature %q is %s, extractor yields %s", label, def.Type, ex.Type)
		}
		if ex.Fn == nil {
			return nil, configErr(op, ErrInvalidConfig, "feature %q has a nil extractor", label)
		}
	}
	for _, def := range reg.defs {
		if _, ok := extractors[def.Label]; !ok {
			return nil, configErr(op, ErrUnknownFeature, "feature %q has no extractor", def.Label)
		}
	}
	m := make(map[string]Extractor, len(extractors))
	for k, v := range extractors {
		m[k] = v
	}
	return &ContextSpec{registry: reg, extractors: m}, nil
}

// Registry returns the feature vocabulary the spec covers.
func (c *ContextSpec) Registry() *FeatureRegistry { return c.registry }

// Build evaluates every feature for one candidate.
func (c *ContextSpec) Build(dc DecisionContext) (FeatureValues, error) {
	values := make(FeatureValues, len(c.registry.defs))
	for _, def := range c.registry.defs {
		v, err := c.extractors[def.Label].Fn(dc)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", def.Label, err)
		}
		values[def.Label] = v
	}
	return values, nil
}
