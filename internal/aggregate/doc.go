// Package aggregate turns per-page and site-wide signals into category
// scores, recommendations and the final audit result.
//
// Each category is an Aggregator registered in a Registry. An aggregator
// collects a typed calculator input from SiteSignals, scores it with the
// matching calculator in package score, and evaluates its ordered
// recommendation rules against the same input. Multi-page ratios are
// matching pages over pages in the category; a category with no pages
// contributes 0.
//
// BuildResult runs every aggregator and folds the category scores into
// the six composite components.
package aggregate
