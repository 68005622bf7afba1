// Package pipeline runs audits as a sequence of steps.
//
// One audit discovers pages, fetches them over a bounded pool, extracts
// per-page and site-wide signals, enriches them from external sources
// and scores the result. Each stage is a Step that reads and extends the
// shared Audit value. Essential steps run even after the audit deadline has
// passed, so a timed-out audit still scores the pages it fetched.
//
// BatchProcessor audits several sites concurrently with errgroup, and
// InFlight makes overlapping audits of the same site share one run.
package pipeline
