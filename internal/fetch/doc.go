// Package fetch retrieves pages for an audit.
//
// The package has two layers. Client is the HTML fetch collaborator: one
// GET per call, with a body cap, a politeness rate limit and an
// OpenTelemetry-instrumented transport. Orchestrator fans a batch of URLs
// out over a bounded worker pool and guarantees that every input URL ends
// up in exactly one of FetchBatchResult.Succeeded or Failed.
//
// # Failure Handling
//
// A transient network error (timeout, connection reset, DNS failure) is
// retried once after a short backoff. A non-2xx status is final. When the
// audit context expires, URLs that were never started are reported as
// abandoned and the orchestrator returns what it has.
//
// # Usage
//
//	client := fetch.NewHTTPClient(fetch.WithCrawlDelay(200 * time.Millisecond))
//	orch := fetch.NewOrchestrator(client, fetch.WithLogger(logger))
//	batch := orch.FetchAll(ctx, urls, fetch.Options{MaxConcurrent: 5})
package fetch
