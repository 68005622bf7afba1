package score

import "errors"

var (
	// ErrInvalidInput is returned when a caller passes an out-of-range
	// percentage, a negative count, or a rank outside the result list.
	ErrInvalidInput = errors.New("invalid calculator input")

	// ErrInvalidWeightConfiguration is returned when the weights of a
	// formula do not sum to its documented total.
	ErrInvalidWeightConfiguration = errors.New("invalid weight configuration")
)
