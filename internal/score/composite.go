package score

import (
	"fmt"
	"log/slog"
	"math"
)

// OtherBaseline is the value of the Other component when no signal
// exists for it.
const OtherBaseline = 50.0

// compositeTotal is the documented sum of the composite weights.
const compositeTotal = 1.0

// Weights are the top-level composite weights.
type Weights struct {
	Visibility float64 `json:"visibility"`
	Tech       float64 `json:"tech"`
	Content    float64 `json:"content"`
	Trust      float64 `json:"trust"`
	Local      float64 `json:"local"`
	Other      float64 `json:"other"`
}

// DefaultWeights is the fixed composite formula:
//
//	0.25*Visibility + 0.20*Tech + 0.20*Content + 0.15*Trust + 0.10*Local + 0.10*Other
var DefaultWeights = Weights{
	Visibility: 0.25,
	Tech:       0.20,
	Content:    0.20,
	Trust:      0.15,
	Local:      0.10,
	Other:      0.10,
}

// Sum returns the sum of all weights.
func (w Weights) Sum() float64 {
	return w.Visibility + w.Tech + w.Content + w.Trust + w.Local + w.Other
}

func (w Weights) values() []float64 {
	return []float64{w.Visibility, w.Tech, w.Content, w.Trust, w.Local, w.Other}
}

// Inputs are the six component scores of the composite. Other is nil
// when no signal exists for it, in which case OtherBaseline is used.
type Inputs struct {
	Visibility float64
	Tech       float64
	Content    float64
	Trust      float64
	Local      float64
	Other      *float64
}

// Engine computes composite scores for one validated weight set.
type Engine struct {
	weights Weights
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger used to report weight violations.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine validates the weights once and returns an Engine. It returns
// ErrInvalidWeightConfiguration when the weights do not sum to 1 or any
// weight is outside [0,1].
func NewEngine(weights Weights, opts ...EngineOption) (*Engine, error) {
	e := &Engine{weights: weights}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	for _, w := range weights.values() {
		if math.IsNaN(w) || w < 0 || w > 1 {
			e.logger.Error("weight invariant violated", "weights", weights, "invalid_weight", w)
			return nil, fmt.Errorf("%w: weight %v outside [0,1]", ErrInvalidWeightConfiguration, w)
		}
	}
	if sum := weights.Sum(); math.Abs(sum-compositeTotal) > weightTolerance {
		e.logger.Error("weight invariant violated", "weights", weights, "sum", sum)
		return nil, fmt.Errorf("%w: composite weights sum to %v, want %v", ErrInvalidWeightConfiguration, sum, compositeTotal)
	}
	return e, nil
}

// MustDefaultEngine returns an Engine for DefaultWeights and panics if
// they are invalid.
func MustDefaultEngine() *Engine {
	e, err := NewEngine(DefaultWeights)
	if err != nil {
		panic(err)
	}
	return e
}

// Weights returns the engine's weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Composite computes the weighted composite. Every input must be a
// percentage in [0,100].
func (e *Engine) Composite(in Inputs) (float64, error) {
	other := OtherBaseline
	if in.Other != nil {
		other = *in.Other
	}
	if err := validatePercents(
		percent{"visibility", in.Visibility},
		percent{"tech", in.Tech},
		percent{"content", in.Content},
		percent{"trust", in.Trust},
		percent{"local", in.Local},
		percent{"other", other},
	); err != nil {
		return 0, err
	}
	w := e.weights
	sum := w.Visibility*in.Visibility +
		w.Tech*in.Tech +
		w.Content*in.Content +
		w.Trust*in.Trust +
		w.Local*in.Local +
		w.Other*other
	return finalize(sum), nil
}
