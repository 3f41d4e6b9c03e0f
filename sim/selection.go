package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// SelectionPolicy picks one candidate index from a slice of salience scores.
// Implementations draw randomness only from the supplied rng.
type SelectionPolicy interface {
	Select(scores []float64, rng *rand.Rand) (int, error)
	Name() string
}

// validSelectionPolicies maps policy names to validity. Unexported to prevent mutation.
var validSelectionPolicies = map[string]bool{
	"":        true,
	"softmax": true,
	"greedy":  true,
}

// IsValidSelectionPolicy returns true if name is a recognized selection policy.
// Empty string is valid and means softmax.
func IsValidSelectionPolicy(name string) bool { return validSelectionPolicies[name] }

// ValidSelectionPolicyNames returns sorted non-empty policy names.
func ValidSelectionPolicyNames() []string {
	names := make([]string, 0, len(validSelectionPolicies))
	for n := range validSelectionPolicies {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// NewSelectionPolicy creates a selection policy by name.
// Empty string defaults to softmax. Panics on unrecognized names.
func NewSelectionPolicy(name string) SelectionPolicy {
	if !IsValidSelectionPolicy(name) {
		panic(fmt.Sprintf("unknown selection policy %q", name))
	}
	switch name {
	case "", "softmax":
		return &Softmax{}
	case "greedy":
		return &GreedyTieBreak{}
	default:
		panic(fmt.Sprintf("unhandled selection policy %q", name))
	}
}

func checkScores(op string, scores []float64) error {
	if len(scores) == 0 {
		return configErr(op, ErrNoCandidates, "empty score set")
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return configErr(op, ErrInvalidScore, "candidate %d scored %v", i, s)
		}
	}
	return nil
}

// Softmax samples a candidate with probability proportional to exp(score).
// The maximum score is subtracted before exponentiating, so large or negative
// scores never overflow.
type Softmax struct{}

// Name implements SelectionPolicy.
func (*Softmax) Name() string { return "softmax" }

// Select implements SelectionPolicy for Softmax.
func (*Softmax) Select(scores []float64, rng *rand.Rand) (int, error) {
	if err := checkScores("softmax select", scores); err != nil {
		return 0, err
	}
	probs := SoftmaxProbabilities(scores)
	r := rng.Float64()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if r < acc {
			return i, nil
		}
	}
	// Rounding can leave acc a hair under 1.
	return len(probs) - 1, nil
}

// SoftmaxProbabilities converts finite scores into a probability distribution.
func SoftmaxProbabilities(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	probs := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// GreedyTieBreak picks the highest score; exact ties are broken uniformly at random.
type GreedyTieBreak struct{}

// Name implements SelectionPolicy.
func (*GreedyTieBreak) Name() string { return "greedy" }

// Select implements SelectionPolicy for GreedyTieBreak.
func (*GreedyTieBreak) Select(scores []float64, rng *rand.Rand) (int, error) {
	if err := checkScores("greedy select", scores); err != nil {
		return 0, err
	}
	best := scores[0]
	ties := []int{0}
	for i := 1; i < len(scores); i++ {
		switch {
		case scores[i] > best:
			best = scores[i]
			ties = ties[:0]
			ties = append(ties, i)
		case scores[i] == best:
			ties = append(ties, i)
		}
	}
	if len(ties) == 1 {
		return ties[0], nil
	}
	return ties[rng.Intn(len(ties))], nil
}
