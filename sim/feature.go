package sim

import (
	"fmt"
	"math"
)

// FeatureType distinguishes scalar from categorical features.
type FeatureType int

const (
	FeatureScalar FeatureType = iota
	FeatureCategorical
)

func (t FeatureType) String() string {
	if t == FeatureScalar {
		return "scalar"
	}
	return "categorical"
}

// FeatureDefinition declares one named dimension of context.
type FeatureDefinition struct {
	Label    string
	Type     FeatureType
	Domain   []string // categorical only, declaration order
	Nullable bool     // categorical only
	index    map[string]bool
}

// InDomain reports whether v is one of a categorical feature's declared values.
func (f *FeatureDefinition) InDomain(v string) bool { return f.index[v] }

// FeatureRegistry is the fixed feature vocabulary for a run. It is frozen as
// soon as a weight vector is created from it.
type FeatureRegistry struct {
	defs   []*FeatureDefinition
	byName map[string]*FeatureDefinition
	frozen bool
}

// NewFeatureRegistry creates an empty registry.
func NewFeatureRegistry() *FeatureRegistry {
	return &FeatureRegistry{byName: make(map[string]*FeatureDefinition)}
}

// RegisterScalar declares a continuous feature.
func (r *FeatureRegistry) RegisterScalar(label string) error {
	if err := r.checkNew("register scalar feature", label); err != nil {
		return err
	}
	r.add(&FeatureDefinition{Label: label, Type: FeatureScalar})
	return nil
}

// RegisterCategorical declares a feature over a finite domain.
func (r *FeatureRegistry) RegisterCategorical(label string, domain []string, nullable bool) error {
	const op = "register categorical feature"
	if err := r.checkNew(op, label); err != nil {
		return err
	}
	if len(domain) == 0 {
		return configErr(op, ErrInvalidConfig, "feature %q has an empty domain", label)
	}
	index := make(map[string]bool, len(domain))
	for _, v := range domain {
		if index[v] {
			return configErr(op, ErrDuplicate, "feature %q domain value %q", label, v)
		}
		index[v] = true
	}
	d := make([]string, len(domain))
	copy(d, domain)
	r.add(&FeatureDefinition{Label: label, Type: FeatureCategorical, Domain: d, Nullable: nullable, index: index})
	return nil
}

func (r *FeatureRegistry) checkNew(op, label string) error {
	if r.frozen {
		return configErr(op, ErrRegistryFrozen, "feature %q", label)
	}
	if label == "" {
		return configErr(op, ErrInvalidConfig, "feature label must not be empty")
	}
	if _, ok := r.byName[label]; ok {
		return configErr(op, ErrDuplicate, "feature %q", label)
	}
	return nil
}

func (r *FeatureRegistry) add(d *FeatureDefinition) {
	r.defs = append(r.defs, d)
	r.byName[d.Label] = d
}

// Freeze makes the registry read-only.
func (r *FeatureRegistry) Freeze() { r.frozen = true }

// Frozen reports whether the registry is read-only.
func (r *FeatureRegistry) Frozen() bool { return r.frozen }

// Feature looks a definition up by label.
func (r *FeatureRegistry) Feature(label string) (*FeatureDefinition, bool) {
	d, ok := r.byName[label]
	return d, ok
}

// Features returns the definitions in declaration order.
func (r *FeatureRegistry) Features() []*FeatureDefinition {
	out := make([]*FeatureDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Labels returns the declared labels in declaration order.
func (r *FeatureRegistry) Labels() []string {
	out := make([]string, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Label
	}
	return out
}

// === Feature values ===

type valueKind int

const (
	valueNull valueKind = iota
	valueScalar
	valueCategory
)

// Value is one feature's value in a context: a number, a category, or null.
type Value struct {
	kind valueKind
	num  float64
	cat  string
}

// Scalar wraps a continuous value.
func Scalar(v float64) Value { return Value{kind: valueScalar, num: v} }

// Category wraps a categorical value.
func Category(v string) Value { return Value{kind: valueCategory, cat: v} }

// Null is the absent value for nullable categorical features.
func Null() Value { return Value{} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == valueNull }

func (v Value) String() string {
	switch v.kind {
	case valueScalar:
		return fmt.Sprintf("%g", v.num)
	case valueCategory:
		return v.cat
	default:
		return "null"
	}
}

// FeatureValues assigns a value to each feature label.
type FeatureValues map[string]Value

// Logistic squashes a raw score into (0,1).
func Logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
