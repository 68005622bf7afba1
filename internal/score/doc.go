// Package score implements the weighted-formula calculators of the audit.
//
// Every calculator is a pure function. Inputs that represent percentages
// must be within [0,100] and counts must be non-negative; violations return
// ErrInvalidInput instead of being clamped. Only the final value of a
// calculator is clamped to [0,100], and every result is rounded to two
// decimal places with round-half-away-from-zero.
//
// Partial scores use explicit step functions (see Band) so that the
// recommendation rules in package aggregate can depend on the exact
// breakpoints.
package score
