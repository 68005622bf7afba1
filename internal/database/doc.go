// Package database stores audit history in SQLite.
//
// AuditDB keeps every finished AuditResult as JSON keyed by the
// normalized site key, plus one row per audited page so that history can
// be listed without decoding full results. The trend engine only needs
// the most recent results for a key, which LatestResults returns.
//
// SQLite (modernc.org/sqlite) keeps the history in a single CGO-free
// file under the XDG data directory.
package database
