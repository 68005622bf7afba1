// Package model defines the data structures shared by the audit engine.
//
// The main types are:
//   - Signal records (MetaSignals, SchemaSignals, RobotsSignals, ...): typed
//     results of one extractor run over one page or well-known file
//   - PageSignals and SiteSignals: the per-page and per-site collections the
//     aggregators consume
//   - CategoryScore and AuditResult: the scored snapshot of one audit run
//   - PageDiscoveryManifest and FetchBatchResult: discovery and fetch output
//   - TrendDelta and TrendReport: the diff between two audit results
//
// Signal records are values. Every field has a zero value that means
// "absent", and optional enrichment data uses pointer fields where nil
// means "unavailable". Nothing in this package performs I/O.
package model
