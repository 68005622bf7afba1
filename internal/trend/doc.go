// Package trend compares two audit results of the same site.
//
// Compare pairs the composite score and every category present in both
// results, computes absolute and percentage deltas, and classifies each
// metric as improved, declined or stable. A previous value of zero is a
// baseline of nothing: the percentage is 100 when the current value is
// positive and 0 otherwise.
package trend
