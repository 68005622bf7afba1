package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/nao1215/aiaudit/internal/aggregate"
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/enrich"
	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
	"github.com/nao1215/aiaudit/internal/signal"
	"golang.org/x/sync/errgroup"
)

// Step names.
const (
	StepDiscover  = "discover"
	StepWellKnown = "well_known"
	StepFetch     = "fetch"
	StepExtract   = "extract"
	StepImagery   = "imagery"
	StepEnrich    = "enrich"
	StepScore     = "score"
)

// DefaultMaxImages caps the images downloaded for EXIF inspection.
const DefaultMaxImages = 10

// DiscoverStep builds the page manifest.
type DiscoverStep struct {
	discoverer *crawler.Discoverer
}

// NewDiscoverStep creates a discovery step.
func NewDiscoverStep(discoverer *crawler.Discoverer) *DiscoverStep {
	return &DiscoverStep{discoverer: discoverer}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return StepDiscover
}

// Do executes the discovery step. Discovery never fails; the worst case
// is the root-only fallback manifest.
func (s *DiscoverStep) Do(ctx context.Context, audit *Audit) error {
	audit.Signals.Discovery = s.discoverer.Discover(ctx, audit.Target.URL, audit.Target.Discovery)
	return nil
}

// WellKnownStep fetches robots.txt and llms.txt from the site root.
type WellKnownStep struct {
	client fetch.Client
	logger *slog.Logger
}

// NewWellKnownStep creates a step that fetches the well-known files.
func NewWellKnownStep(client fetch.Client, logger *slog.Logger) *WellKnownStep {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WellKnownStep{client: client, logger: logger}
}

// Name returns the step name.
func (s *WellKnownStep) Name() string {
	return StepWellKnown
}

// Do executes the well-known files step.
func (s *WellKnownStep) Do(ctx context.Context, audit *Audit) error {
	origin := siteOrigin(audit.Target.URL)

	var g errgroup.Group
	g.Go(func() error {
		text, ok := s.get(ctx, origin+"/robots.txt")
		audit.Signals.Robots = signal.AnalyzeRobots(text, ok)
		return nil
	})
	g.Go(func() error {
		text, ok := s.get(ctx, origin+"/llms.txt")
		audit.Signals.LLMS = signal.CheckLLMS(text, ok)
		return nil
	})
	return g.Wait()
}

// get returns the body of a 2xx response and whether there was one.
func (s *WellKnownStep) get(ctx context.Context, rawURL string) (string, bool) {
	resp, err := s.client.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.Debug("well-known file unavailable", "url", rawURL, "error", err)
		return "", false
	}
	if !resp.OK() {
		return "", false
	}
	return string(resp.Body), true
}

// FetchStep fetches every candidate page over the orchestrator's pool.
type FetchStep struct {
	orchestrator *fetch.Orchestrator
	opts         fetch.Options
	recorder     *metrics.Recorder
}

// NewFetchStep creates a fetch step. recorder may be nil.
func NewFetchStep(orchestrator *fetch.Orchestrator, opts fetch.Options, recorder *metrics.Recorder) *FetchStep {
	return &FetchStep{orchestrator: orchestrator, opts: opts, recorder: recorder}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do executes the fetch step. The homepage is always fetched, even when
// discovery did not list it.
func (s *FetchStep) Do(ctx context.Context, audit *Audit) error {
	urls := withRoot(audit.Target.URL, audit.Signals.Discovery.CandidateURLs)

	batch := s.orchestrator.FetchAll(ctx, urls, s.opts)
	audit.Pages = batch.Succeeded
	audit.Signals.FetchFailures = batch.Failed
	if len(batch.Abandoned) > 0 {
		audit.TimedOut = true
	}
	if s.recorder != nil {
		s.recorder.RecordFetch(batch)
	}
	return nil
}

// Skip records every page the step would have fetched as abandoned. The
// orchestrator schedules nothing on a done context, so no request is made.
func (s *FetchStep) Skip(ctx context.Context, audit *Audit) {
	_ = s.Do(ctx, audit) //nolint:errcheck // Do never fails
}

// withRoot prepends root to urls unless an equivalent URL is present.
func withRoot(root string, urls []string) []string {
	key := crawler.NormalizeURL(root)
	for _, u := range urls {
		if crawler.NormalizeURL(u) == key {
			return urls
		}
	}
	out := make([]string, 0, len(urls)+1)
	out = append(out, root)
	return append(out, urls...)
}

// ExtractStep turns fetched pages into page signals.
type ExtractStep struct{}

// NewExtractStep creates an extraction step.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Essential reports that extraction runs after the audit deadline.
func (s *ExtractStep) Essential() bool {
	return true
}

// Do executes the extraction step. Pages keep the fetch queue order, and the
// page whose URL matches the root becomes the homepage.
func (s *ExtractStep) Do(_ context.Context, audit *Audit) error {
	pages := make([]model.PageSignals, len(audit.Pages))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, page := range audit.Pages {
		g.Go(func() error {
			pages[i] = signal.ExtractPage(page)
			return nil
		})
	}
	_ = g.Wait()

	rootKey := crawler.NormalizeURL(audit.Target.URL)
	audit.Signals.Homepage = nil
	for i := range pages {
		if crawler.NormalizeURL(pages[i].URL) == rootKey {
			home := pages[i]
			audit.Signals.Homepage = &home
			break
		}
	}
	audit.Signals.Pages = pages

	// Bodies are no longer needed.
	audit.Pages = nil
	return nil
}

// ImageryStep downloads a sample of same-site images and inspects their
// EXIF metadata.
type ImageryStep struct {
	client    fetch.Client
	maxImages int
	logger    *slog.Logger
}

// NewImageryStep creates an imagery step. maxImages <= 0 selects
// DefaultMaxImages.
func NewImageryStep(client fetch.Client, maxImages int, logger *slog.Logger) *ImageryStep {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ImageryStep{client: client, maxImages: maxImages, logger: logger}
}

// Name returns the step name.
func (s *ImageryStep) Name() string {
	return StepImagery
}

// Do executes the imagery step.
func (s *ImageryStep) Do(ctx context.Context, audit *Audit) error {
	urls := s.sample(audit.Signals)
	if len(urls) == 0 {
		return nil
	}

	bodies := make([][]byte, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range urls {
		g.Go(func() error {
			resp, err := s.client.Fetch(gctx, u)
			if err != nil {
				s.logger.Debug("image fetch failed", "url", u, "error", err)
				return nil
			}
			if resp.OK() {
				bodies[i] = resp.Body
			}
			return nil
		})
	}
	_ = g.Wait()

	audit.Signals.Imagery = signal.ExtractImagery(bodies)
	return nil
}

// sample returns up to maxImages distinct image URLs in page order.
func (s *ImageryStep) sample(site *model.SiteSignals) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range site.AllPages() {
		for _, u := range p.Content.ImageURLs {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
			if len(out) == s.maxImages {
				return out
			}
		}
	}
	return out
}

// EnrichStep collects third-party signals.
type EnrichStep struct {
	enricher *enrich.Enricher
}

// NewEnrichStep creates an enrichment step. A nil enricher leaves every
// enrichment field unset.
func NewEnrichStep(enricher *enrich.Enricher) *EnrichStep {
	return &EnrichStep{enricher: enricher}
}

// Name returns the step name.
func (s *EnrichStep) Name() string {
	return StepEnrich
}

// Do executes the enrichment step.
func (s *EnrichStep) Do(ctx context.Context, audit *Audit) error {
	if s.enricher == nil {
		return nil
	}
	audit.Signals.Enrichment = s.enricher.Enrich(ctx, enrich.Target{
		Domain:       siteDomain(audit.Target.URL),
		BusinessName: audit.Target.BusinessName,
		Address:      audit.Target.Address,
		Queries:      audit.Target.Queries,
	})
	return nil
}

// ScoreStep aggregates the signals into the audit result.
type ScoreStep struct {
	registry *aggregate.Registry
	engine   *score.Engine
	now      func() time.Time
}

// NewScoreStep creates a scoring step. A nil registry or engine selects
// the defaults; a nil clock uses time.Now.
func NewScoreStep(registry *aggregate.Registry, engine *score.Engine, now func() time.Time) *ScoreStep {
	if registry == nil {
		registry = aggregate.DefaultRegistry()
	}
	if now == nil {
		now = time.Now
	}
	return &ScoreStep{registry: registry, engine: engine, now: now}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return StepScore
}

// Essential reports that scoring runs after the audit deadline.
func (s *ScoreStep) Essential() bool {
	return true
}

// Do executes the scoring step.
func (s *ScoreStep) Do(_ context.Context, audit *Audit) error {
	result, err := s.registry.BuildResult(s.engine, audit.Signals, s.now())
	if err != nil {
		return err
	}
	result.TimedOut = audit.TimedOut
	audit.Result = result
	return nil
}

// siteOrigin returns scheme://host of rawURL.
func siteOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(rawURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

// siteDomain returns the host of rawURL without "www.".
func siteDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
