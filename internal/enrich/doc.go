// Package enrich queries third-party services for signals the site
// itself cannot provide: the business-profile rating and review count,
// local backlinks, and search rankings for tracked queries.
//
// Every client is optional. Enricher.Enrich never fails: an unconfigured
// or failing source leaves its field unset and logs an
// "enrichment unavailable" event, and the affected category falls back to
// its neutral default.
package enrich
