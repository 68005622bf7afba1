package score

import (
	"errors"
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"half rounds up", 0.125, 0.13},
		{"negative half rounds away from zero", -0.125, -0.13},
		{"float noise is removed", 74.00000000000001, 74},
		{"rounds up to integer", 69.999, 70},
		{"decimal half below its binary value", 1.005, 1.01},
		{"decimal half 0.285", 0.285, 0.29},
		{"negative decimal half", -2.675, -2.68},
		{"already rounded", 12.34, 12.34},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Round2(tt.in); got != tt.want {
				t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{150, 100},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidatePercent(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0, 50, 100} {
		if err := ValidatePercent("x", v); err != nil {
			t.Errorf("ValidatePercent(%v) unexpected error: %v", v, err)
		}
	}
	for _, v := range []float64{-0.01, 100.01, math.NaN()} {
		err := ValidatePercent("x", v)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidatePercent(%v) = %v, want ErrInvalidInput", v, err)
		}
	}
}

func TestValidateCount(t *testing.T) {
	t.Parallel()

	if err := ValidateCount("pages", 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCount("pages", -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		matching, total int
		want            float64
	}{
		{"empty category is absent", 0, 0, 0},
		{"full coverage", 4, 4, 100},
		{"partial coverage", 8, 10, 80},
		{"no matches", 0, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Ratio(tt.matching, tt.total); got != tt.want {
				t.Errorf("Ratio(%d, %d) = %v, want %v", tt.matching, tt.total, got, tt.want)
			}
		})
	}
}

func TestStep(t *testing.T) {
	t.Parallel()

	uniqueness := func(v float64) float64 {
		return Step(v,
			Band{Min: UniquenessFullCredit, Score: 100},
			Band{Min: UniquenessPartial, Score: 60},
		)
	}

	tests := []struct {
		in   float64
		want float64
	}{
		{100, 100},
		{95, 100},
		{94.99, 60},
		{80, 60},
		{79.99, 0},
		{0, 0},
	}

	for _, tt := range tests {
		if got := uniqueness(tt.in); got != tt.want {
			t.Errorf("uniqueness(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	t.Run("exclusive band", func(t *testing.T) {
		t.Parallel()

		bands := []Band{{Min: 0, Score: 30, Exclusive: true}}
		if got := Step(0, bands...); got != 0 {
			t.Errorf("Step(0) = %v, want 0", got)
		}
		if got := Step(0.5, bands...); got != 30 {
			t.Errorf("Step(0.5) = %v, want 30", got)
		}
	})

	t.Run("step below", func(t *testing.T) {
		t.Parallel()

		ceilings := []Ceiling{{Max: 20, Score: 100}, {Max: 25, Score: 70}}
		if got := StepBelow(20, 10, ceilings...); got != 100 {
			t.Errorf("StepBelow(20) = %v, want 100", got)
		}
		if got := StepBelow(24, 10, ceilings...); got != 70 {
			t.Errorf("StepBelow(24) = %v, want 70", got)
		}
		if got := StepBelow(40, 10, ceilings...); got != 10 {
			t.Errorf("StepBelow(40) = %v, want fallback 10", got)
		}
	})
}

func TestFormulasSumToOne(t *testing.T) {
	t.Parallel()

	for _, f := range Formulas() {
		if err := f.Validate(); err != nil {
			t.Errorf("formula %s: %v", f.Name, err)
		}
	}

	broken := Formula{Name: "broken", Weights: []float64{0.5, 0.4}}
	if err := broken.Validate(); !errors.Is(err, ErrInvalidWeightConfiguration) {
		t.Errorf("expected ErrInvalidWeightConfiguration, got %v", err)
	}

	negative := Formula{Name: "negative", Weights: []float64{1.5, -0.5}}
	if err := negative.Validate(); !errors.Is(err, ErrInvalidWeightConfiguration) {
		t.Errorf("expected ErrInvalidWeightConfiguration, got %v", err)
	}
}

func TestMustFormulaPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected mustFormula to panic on a bad sum")
		}
	}()
	_ = mustFormula("bad", 0.3, 0.3)
}
