package model

// DiscoverySource records which strategies contributed the URLs of a
// PageDiscoveryManifest.
type DiscoverySource string

const (
	// SourceSitemap means every URL came from sitemap files found at the
	// well-known locations.
	SourceSitemap DiscoverySource = "sitemap"

	// SourceRobots means URLs came only from sitemaps referenced by
	// robots.txt Sitemap directives.
	SourceRobots DiscoverySource = "robots"

	// SourceCrawl means URLs came from homepage link extraction, or that
	// discovery fell back to the root URL alone.
	SourceCrawl DiscoverySource = "crawl"

	// SourceSitemapAndCrawl means both sitemap and crawl contributed.
	SourceSitemapAndCrawl DiscoverySource = "sitemap+crawl"
)

// PageDiscoveryManifest is the output of page discovery. CandidateURLs is
// deduplicated, order-preserving and never longer than the page cap.
type PageDiscoveryManifest struct {
	CandidateURLs []string        `json:"candidate_urls"`
	Source        DiscoverySource `json:"source"`
	Truncated     bool            `json:"truncated"`
}

// IsFallback reports whether the manifest is the root-only fallback.
func (m PageDiscoveryManifest) IsFallback() bool {
	return m.Source == SourceCrawl && len(m.CandidateURLs) == 1
}
