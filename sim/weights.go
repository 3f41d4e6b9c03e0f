package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/practice-sim/practice-sim/sim/trace"
)

// WeightVector holds the weight/bias parameters scoring one practice kind for
// one agent: one pair per scalar feature and one pair per categorical value.
type WeightVector struct {
	registry    *FeatureRegistry
	scalar      map[string]trace.FeatureWeight
	categorical map[string]map[string]trace.FeatureWeight
}

// NewWeightVector creates an empty vector over reg and freezes reg.
func NewWeightVector(reg *FeatureRegistry) *WeightVector {
	reg.Freeze()
	return &WeightVector{
		registry:    reg,
		scalar:      make(map[string]trace.FeatureWeight),
		categorical: make(map[string]map[string]trace.FeatureWeight),
	}
}

// Registry returns the feature vocabulary the vector is defined over.
func (wv *WeightVector) Registry() *FeatureRegistry { return wv.registry }

// RegisterWeight sets parameters for a feature. Scalar features take a nil
// value; categorical features require a value from the feature's domain.
func (wv *WeightVector) RegisterWeight(label string, value *string, weight, bias float64) error {
	const op = "register weight"
	def, ok := wv.registry.Feature(label)
	if !ok {
		return configErr(op, ErrUnknownFeature, "%q", label)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || math.IsNaN(bias) || math.IsInf(bias, 0) {
		return configErr(op, ErrInvalidConfig, "feature %q weight and bias must be finite, got %v/%v", label, weight, bias)
	}
	switch def.Type {
	case FeatureScalar:
		if value != nil {
			return configErr(op, ErrFeatureType, "scalar feature %q takes no value, got %q", label, *value)
		}
		wv.scalar[label] = trace.FeatureWeight{Weight: weight, Bias: bias}
	case FeatureCategorical:
		if value == nil {
			return configErr(op, ErrFeatureType, "categorical feature %q requires a value", label)
		}
		if !def.InDomain(*value) {
			return configErr(op, ErrUnknownFeature, "value %q outside domain of %q", *value, label)
		}
		if wv.categorical[label] == nil {
			wv.categorical[label] = make(map[string]trace.FeatureWeight)
		}
		wv.categorical[label][*value] = trace.FeatureWeight{Weight: weight, Bias: bias}
	}
	return nil
}

// SetScalar is RegisterWeight for a scalar feature.
func (wv *WeightVector) SetScalar(label string, weight, bias float64) error {
	return wv.RegisterWeight(label, nil, weight, bias)
}

// SetCategorical is RegisterWeight for one value of a categorical feature.
func (wv *WeightVector) SetCategorical(label, value string, weight, bias float64) error {
	return wv.RegisterWeight(label, &value, weight, bias)
}

// Score sums every feature's contribution in declaration order:
// scalar w*v+b, categorical w+b for the supplied value, 0 for null on a
// nullable feature. values must cover exactly the registry's features.
// A category outside the feature's domain has no weight and fails with
// ErrMissingWeight, the same as an in-domain value that was never weighted.
func (wv *WeightVector) Score(values FeatureValues) (float64, error) {
	const op = "score"
	for label := range values {
		if _, ok := wv.registry.Feature(label); !ok {
			return 0, invariantErr(op, ErrUnknownFeature, "value supplied for undeclared feature %q", label)
		}
	}
	sum := 0.0
	for _, def := range wv.registry.defs {
		v, ok := values[def.Label]
		if !ok {
			return 0, invariantErr(op, ErrUnknownFeature, "no value supplied for feature %q", def.Label)
		}
		switch def.Type {
		case FeatureScalar:
			if v.kind != valueScalar {
				return 0, invariantErr(op, ErrFeatureType, "scalar feature %q got %s", def.Label, v)
			}
			fw, ok := wv.scalar[def.Label]
			if !ok {
				return 0, invariantErr(op, ErrMissingWeight, "scalar feature %q", def.Label)
			}
			sum += fw.Weight*v.num + fw.Bias
		case FeatureCategorical:
			if v.kind == valueNull {
				if def.Nullable {
					continue
				}
				return 0, invariantErr(op, ErrMissingWeight, "null value for non-nullable feature %q", def.Label)
			}
			if v.kind != valueCategory {
				return 0, invariantErr(op, ErrFeatureType, "categorical feature %q got scalar %s", def.Label, v)
			}
			fw, ok := wv.categorical[def.Label][v.cat]
			if !ok {
				return 0, invariantErr(op, ErrMissingWeight, "feature %q value %q", def.Label, v.cat)
			}
			sum += fw.Weight + fw.Bias
		}
	}
	return sum, nil
}

// Weights flattens the vector for reporting: scalar features under their
// label, categorical values under "label_value".
func (wv *WeightVector) Weights() map[string]trace.FeatureWeight {
	out := make(map[string]trace.FeatureWeight, len(wv.scalar))
	for label, fw := range wv.scalar {
		out[label] = fw
	}
	for label, values := range wv.categorical {
		for v, fw := range values {
			out[label+"_"+v] = fw
		}
	}
	return out
}

func (wv *WeightVector) String() string {
	var b strings.Builder
	for _, def := range wv.registry.defs {
		if def.Type == FeatureScalar {
			if fw, ok := wv.scalar[def.Label]; ok {
				fmt.Fprintf(&b, "[%s => b:%g w:%g]", def.Label, fw.Bias, fw.Weight)
			}
			continue
		}
		for _, v := range def.Domain {
			if fw, ok := wv.categorical[def.Label][v]; ok {
				fmt.Fprintf(&b, "[%s, %s => b:%g w:%g]", def.Label, v, fw.Bias, fw.Weight)
			}
		}
	}
	return b.String()
}

// RandomWeightVector fills every scalar feature and every categorical domain
// value with weight and bias drawn uniformly from [lo, hi).
func RandomWeightVector(reg *FeatureRegistry, rng *rand.Rand, lo, hi float64) (*WeightVector, error) {
	if !(hi > lo) {
		return nil, configErr("random weight vector", ErrInvalidConfig, "range [%g, %g) is empty", lo, hi)
	}
	draw := func() float64 { return lo + rng.Float64()*(hi-lo) }
	wv := NewWeightVector(reg)
	for _, def := range reg.defs {
		if def.Type == FeatureScalar {
			if err := wv.SetScalar(def.Label, draw(), draw()); err != nil {
				return nil, err
			}
			continue
		}
		for _, v := range def.Domain {
			if err := wv.SetCategorical(def.Label, v, draw(), draw()); err != nil {
				return nil, err
			}
		}
	}
	return wv, nil
}
