// Package signal extracts typed signal records from already-fetched text.
//
// Every extractor is a pure function of its input: no network, no disk and
// no clock. Malformed or missing markup never produces an error; a missing
// tag yields a record with Present false and zero values, so extractors can
// be tested with literal HTML fixtures.
package signal
