package score

// Band is one breakpoint of a step function. A value qualifies for the
// band when it is >= Min, or > Min when Exclusive is set.
type Band struct {
	Min       float64
	Score     float64
	Exclusive bool
}

func (b Band) matches(v float64) bool {
	if b.Exclusive {
		return v > b.Min
	}
	return v >= b.Min
}

// Step returns the Score of the first band v qualifies for, or 0.
// Bands must be ordered from the highest Min to the lowest.
func Step(v float64, bands ...Band) float64 {
	for _, b := range bands {
		if b.matches(v) {
			return b.Score
		}
	}
	return 0
}

// Ceiling is one breakpoint of a step function where lower values are
// better. A value qualifies when it is <= Max.
type Ceiling struct {
	Max   float64
	Score float64
}

// StepBelow returns the Score of the first ceiling v is within, or
// fallback. Ceilings must be ordered from the lowest Max to the highest.
func StepBelow(v float64, fallback float64, ceilings ...Ceiling) float64 {
	for _, c := range ceilings {
		if v <= c.Max {
			return c.Score
		}
	}
	return fallback
}
