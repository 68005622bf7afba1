package score

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxScore is the upper bound of every score.
const MaxScore = 100.0

// NeutralScore is the documented default of a partial score whose source
// signal is unavailable (for example, an enrichment API that is not
// configured).
const NeutralScore = 50.0

// weightTolerance absorbs floating point error when summing weights.
const weightTolerance = 1e-9

// Round2 rounds v to two decimal places, rounding halves away from zero.
// Rounding happens on the shortest decimal form of v, so 1.005 becomes
// 1.01 even though its binary value is slightly below the half.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Clamp limits v to [0, MaxScore].
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	default:
		return v
	}
}

// finalize clamps and rounds a calculator result.
func finalize(v float64) float64 {
	return Round2(Clamp(v))
}

// ValidatePercent returns ErrInvalidInput when v is outside [0,100].
func ValidatePercent(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > MaxScore {
		return fmt.Errorf("%w: %s must be within [0,100], got %v", ErrInvalidInput, name, v)
	}
	return nil
}

// ValidateCount returns ErrInvalidInput when n is negative.
func ValidateCount(name string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidInput, name, n)
	}
	return nil
}

// Ratio returns matching/total as a percentage. A zero total yields 0,
// which models an absent category rather than an error.
func Ratio(matching, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(matching) / float64(total) * 100
	return Clamp(r)
}

// Mean returns the arithmetic mean of values, or 0 for none.
func Mean(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// BoolScore maps true to MaxScore and false to 0.
func BoolScore(b bool) float64 {
	if b {
		return MaxScore
	}
	return 0
}
