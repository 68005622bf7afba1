package model

// Direction classifies a TrendDelta.
type Direction string

const (
	// DirectionImproved means the metric rose by more than the threshold.
	DirectionImproved Direction = "improved"
	// DirectionDeclined means the metric fell by more than the threshold.
	DirectionDeclined Direction = "declined"
	// DirectionStable means the change stayed within the threshold.
	DirectionStable Direction = "stable"
)

// TrendDelta is the change of one metric between two audit results.
// Percent is always set; a zero baseline maps to 100 when the current
// value is positive and 0 otherwise.
type TrendDelta struct {
	Metric    string    `json:"metric"`
	Previous  float64   `json:"previous"`
	Current   float64   `json:"current"`
	Absolute  float64   `json:"absolute"`
	Percent   *float64  `json:"percent"`
	Direction Direction `json:"direction"`
}

// TrendReport is the output of comparing two audit results.
type TrendReport struct {
	Deltas   []TrendDelta `json:"deltas"`
	Summary  string       `json:"summary"`
	Improved []string     `json:"improved,omitempty"`
	Declined []string     `json:"declined,omitempty"`
	Stable   []string     `json:"stable,omitempty"`

	// HasBaseline is false when there was no previous result.
	HasBaseline bool `json:"has_baseline"`
}
