package score

import (
	"fmt"
	"math"
)

// Formula is a named list of partial-score weights that must sum to 1.
type Formula struct {
	Name    string
	Weights []float64
}

// Validate returns ErrInvalidWeightConfiguration when the weights do not
// sum to 1 or any weight is outside [0,1].
func (f Formula) Validate() error {
	sum := 0.0
	for _, w := range f.Weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %s has weight %v outside [0,1]", ErrInvalidWeightConfiguration, f.Name, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: %s weights sum to %v, want 1", ErrInvalidWeightConfiguration, f.Name, sum)
	}
	return nil
}

// apply computes the weighted sum of values. The caller guarantees that
// len(values) == len(f.Weights).
func (f Formula) apply(values ...float64) float64 {
	sum := 0.0
	for i, w := range f.Weights {
		sum += w * values[i]
	}
	return finalize(sum)
}

// mustFormula panics when the formula is invalid. It is only used for the
// package-level formulas so an edit that breaks a sum fails at init.
func mustFormula(name string, weights ...float64) Formula {
	f := Formula{Name: name, Weights: weights}
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}
