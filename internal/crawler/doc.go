// Package crawler discovers the pages of a site that an audit should
// fetch.
//
// # Strategies
//
// Discovery combines up to three sources, each switched on by Options:
//   - sitemap.xml, or sitemap_index.xml when sitemap.xml yields nothing,
//     following one level of sitemap-index nesting
//   - Sitemap directives in robots.txt
//   - links on the homepage that stay on the same host (one hop, never
//     recursive)
//
// Candidates are deduplicated by normalized URL in first-seen order,
// filtered by page type and ignore patterns, and capped at MaxPages.
// The manifest's Source names the strategies that actually contributed
// the returned URLs.
//
// # Failure Handling
//
// Discover never fails. When no strategy yields a URL the manifest is the
// root URL alone with source "crawl", and a "discovery degraded" event is
// logged.
//
// # Usage
//
//	d := crawler.NewDiscoverer(client, crawler.WithLogger(logger))
//	manifest := d.Discover(ctx, "https://clinic.example", crawler.DefaultOptions())
package crawler
