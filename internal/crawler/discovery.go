package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/signal"
)

// Page cap limits.
const (
	DefaultMaxPages = 50
	MaxPagesLimit   = 100
)

// defaultRequestTimeout bounds each discovery request.
const defaultRequestTimeout = 15 * time.Second

// Options selects discovery strategies and limits.
type Options struct {
	UseSitemap         bool
	UseRobots          bool
	CrawlInternalLinks bool

	// MaxPages caps the manifest. Zero means DefaultMaxPages; values above
	// MaxPagesLimit are lowered to it.
	MaxPages int

	// FilterType restricts candidates to one page family.
	FilterType FilterType

	// IgnorePatterns are path globs whose matches are dropped.
	IgnorePatterns []string
}

// DefaultOptions enables every strategy with the default cap.
func DefaultOptions() Options {
	return Options{
		UseSitemap:         true,
		UseRobots:          true,
		CrawlInternalLinks: true,
		MaxPages:           DefaultMaxPages,
		FilterType:         FilterAll,
	}
}

func (o Options) maxPages() int {
	switch {
	case o.MaxPages <= 0:
		return DefaultMaxPages
	case o.MaxPages > MaxPagesLimit:
		return MaxPagesLimit
	default:
		return o.MaxPages
	}
}

// origin is the strategy that first produced a candidate.
type origin int

const (
	originSitemap origin = iota
	originRobots
	originCrawl
)

type candidate struct {
	url    string
	origin origin
}

// candidateSet deduplicates by normalized URL in first-seen order.
type candidateSet struct {
	seen  map[string]struct{}
	items []candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]struct{})}
}

func (s *candidateSet) add(rawURL string, from origin) {
	rawURL = stripFragment(strings.TrimSpace(rawURL))
	key := NormalizeURL(rawURL)
	if key == "" {
		return
	}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, candidate{url: rawURL, origin: from})
}

// Discoverer expands a root URL into a bounded list of pages to audit.
type Discoverer struct {
	client         fetch.Client
	logger         *slog.Logger
	requestTimeout time.Duration
}

// DiscovererOption configures a Discoverer.
type DiscovererOption func(*Discoverer)

// WithLogger sets the logger for discovery events.
func WithLogger(logger *slog.Logger) DiscovererOption {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRequestTimeout bounds each sitemap, robots.txt and homepage request.
func WithRequestTimeout(timeout time.Duration) DiscovererOption {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.requestTimeout = timeout
		}
	}
}

// NewDiscoverer creates a Discoverer that fetches through client.
func NewDiscoverer(client fetch.Client, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		client:         client,
		logger:         slog.New(slog.DiscardHandler),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover runs the enabled strategies and returns the manifest. It never
// returns an empty manifest.
func (d *Discoverer) Discover(ctx context.Context, rootURL string, opts Options) model.PageDiscoveryManifest {
	rootURL = EnsureScheme(rootURL)
	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return d.fallback(rootURL, "invalid root URL")
	}

	set := newCandidateSet()
	visitedSitemaps := make(map[string]bool)

	if opts.UseSitemap {
		for _, name := range []string{"/sitemap.xml", "/sitemap_index.xml"} {
			before := len(set.items)
			d.readSitemap(ctx, root, resolve(root, name), originSitemap, 0, set, visitedSitemaps)
			if len(set.items) > before {
				break
			}
		}
	}

	if opts.UseRobots {
		if body, ok := d.get(ctx, resolve(root, "/robots.txt")); ok {
			for _, sm := range signal.ParseSitemapDirectives(string(body)) {
				d.readSitemap(ctx, root, sm, originRobots, 0, set, visitedSitemaps)
			}
		}
	}

	if opts.CrawlInternalLinks {
		d.crawlHomepage(ctx, root, set)
	}

	var kept []candidate
	for _, c := range set.items {
		if !opts.FilterType.Matches(c.url) || ignored(c.url, opts.IgnorePatterns) {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return d.fallback(root.String(), "no candidate pages found")
	}

	manifest := model.PageDiscoveryManifest{}
	if limit := opts.maxPages(); len(kept) > limit {
		kept = kept[:limit]
		manifest.Truncated = true
	}
	for _, c := range kept {
		manifest.CandidateURLs = append(manifest.CandidateURLs, c.url)
	}
	manifest.Source = sourceOf(kept)

	d.logger.Debug("discovery complete",
		"root", root.String(),
		"source", manifest.Source,
		"candidates", len(manifest.CandidateURLs),
		"truncated", manifest.Truncated)
	return manifest
}

// fallback returns the root-only manifest.
func (d *Discoverer) fallback(rootURL, reason string) model.PageDiscoveryManifest {
	d.logger.Warn("discovery degraded", "root", rootURL, "reason", reason)
	return model.PageDiscoveryManifest{
		CandidateURLs: []string{rootURL},
		Source:        model.SourceCrawl,
	}
}

// readSitemap adds the same-site page URLs of one sitemap. A sitemap
// index is followed one level deep.
func (d *Discoverer) readSitemap(ctx context.Context, root *url.URL, sitemapURL string, from origin, depth int, set *candidateSet, visited map[string]bool) {
	key := NormalizeURL(sitemapURL)
	if visited[key] {
		return
	}
	visited[key] = true

	body, ok := d.get(ctx, sitemapURL)
	if !ok {
		return
	}
	pages, children, err := parseSitemap(body)
	if err != nil {
		d.logger.Debug("sitemap unreadable", "url", sitemapURL, "error", err)
		return
	}

	for _, p := range pages {
		if u, err := url.Parse(p); err == nil && sameSite(u, root) {
			set.add(p, from)
		}
	}
	if depth > 0 {
		return
	}
	for _, child := range children {
		d.readSitemap(ctx, root, child, from, depth+1, set, visited)
	}
}

// crawlHomepage adds the same-site links of the homepage.
func (d *Discoverer) crawlHomepage(ctx context.Context, root *url.URL, set *candidateSet) {
	body, ok := d.get(ctx, root.String())
	if !ok {
		return
	}
	extractor, err := NewLinkExtractor(root.String())
	if err != nil {
		return
	}
	links, err := extractor.Extract(bytes.NewReader(body))
	if err != nil {
		d.logger.Debug("homepage links unreadable", "url", root.String(), "error", err)
		return
	}
	for _, link := range links {
		set.add(link, originCrawl)
	}
}

// get fetches rawURL and returns its body when the status is 2xx.
func (d *Discoverer) get(ctx context.Context, rawURL string) ([]byte, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()

	resp, err := d.client.Fetch(reqCtx, rawURL)
	if err != nil {
		d.logger.Debug("discovery fetch failed", "url", rawURL, "error", err)
		return nil, false
	}
	if !resp.OK() {
		d.logger.Debug("discovery fetch failed", "url", rawURL, "status", resp.StatusCode)
		return nil, false
	}
	return resp.Body, true
}

// sourceOf labels a manifest by the origins of the URLs it returns.
func sourceOf(kept []candidate) model.DiscoverySource {
	var fromSitemap, fromRobots, fromCrawl bool
	for _, c := range kept {
		switch c.origin {
		case originSitemap:
			fromSitemap = true
		case originRobots:
			fromRobots = true
		case originCrawl:
			fromCrawl = true
		}
	}
	switch {
	case (fromSitemap || fromRobots) && fromCrawl:
		return model.SourceSitemapAndCrawl
	case fromSitemap:
		return model.SourceSitemap
	case fromRobots:
		return model.SourceRobots
	default:
		return model.SourceCrawl
	}
}

// resolve joins an absolute path onto the root's scheme and host.
func resolve(root *url.URL, path string) string {
	return root.ResolveReference(&url.URL{Path: path}).String()
}
