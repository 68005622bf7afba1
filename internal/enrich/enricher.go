package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/aiaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// Source names used in log events.
const (
	SourcePlaces    = "places"
	SourceBacklinks = "backlinks"
	SourceRankings  = "rankings"
)

// errNotConfigured marks a source without a client.
var errNotConfigured = errors.New("not configured")

// maxRankQueries bounds concurrent ranking queries per audit.
const maxRankQueries = 2

// PlaceLookup finds the business profile of a clinic.
type PlaceLookup interface {
	Lookup(ctx context.Context, name, address string) (*PlaceDetails, error)
}

// BacklinkCounter estimates backlinks to a domain.
type BacklinkCounter interface {
	Backlinks(ctx context.Context, domain string) (int, error)
}

// SearchService runs search queries and estimates backlinks from them.
type SearchService interface {
	Searcher
	BacklinkCounter
}

// Sources are the enrichment clients. Any of them may be nil.
// Backlinks are taken from Search first and from CrawlService when
// Search is missing or fails.
type Sources struct {
	Places       PlaceLookup
	Search       SearchService
	CrawlService BacklinkCounter
}

// Target describes the site being enriched.
type Target struct {
	Domain       string
	BusinessName string
	Address      string
	Queries      []string
}

// Enricher collects enrichment signals from the configured sources.
type Enricher struct {
	places    PlaceLookup
	backlinks []BacklinkCounter
	ranker    *Ranker
	logger    *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithLogger sets the logger for degradation events.
func WithLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnricher creates an Enricher from the configured sources.
func NewEnricher(src Sources, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		places: src.Places,
		logger: slog.New(slog.DiscardHandler),
	}
	if src.Search != nil {
		e.backlinks = append(e.backlinks, src.Search)
		e.ranker = NewRanker(src.Search)
	}
	if src.CrawlService != nil {
		e.backlinks = append(e.backlinks, src.CrawlService)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich queries every source concurrently. Failures leave the matching
// field unset.
func (e *Enricher) Enrich(ctx context.Context, target Target) model.EnrichmentSignals {
	var (
		out model.EnrichmentSignals
		g   errgroup.Group
	)

	g.Go(func() error {
		out.Rating, out.ReviewCount = e.reputation(ctx, target)
		return nil
	})
	g.Go(func() error {
		out.BacklinkCount = e.backlinkCount(ctx, target.Domain)
		return nil
	})
	g.Go(func() error {
		out.Rankings = e.rankings(ctx, target)
		return nil
	})
	_ = g.Wait()

	return out
}

func (e *Enricher) unavailable(source, domain string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, errNotConfigured) {
		level = slog.LevelDebug
	}
	e.logger.Log(context.Background(), level, "enrichment unavailable",
		"source", source,
		"domain", domain,
		"reason", err.Error(),
	)
}

func (e *Enricher) reputation(ctx context.Context, target Target) (*float64, *int) {
	if e.places == nil {
		e.unavailable(SourcePlaces, target.Domain, errNotConfigured)
		return nil, nil
	}
	name := target.BusinessName
	if name == "" {
		name = target.Domain
	}
	details, err := e.places.Lookup(ctx, name, target.Address)
	if err != nil {
		e.unavailable(SourcePlaces, target.Domain, err)
		return nil, nil
	}
	rating, reviews := details.Rating, details.ReviewCount
	return &rating, &reviews
}

func (e *Enricher) backlinkCount(ctx context.Context, domain string) *int {
	if len(e.backlinks) == 0 {
		e.unavailable(SourceBacklinks, domain, errNotConfigured)
		return nil
	}
	for _, src := range e.backlinks {
		n, err := src.Backlinks(ctx, domain)
		if err != nil {
			e.unavailable(SourceBacklinks, domain, err)
			continue
		}
		return &n
	}
	return nil
}

func (e *Enricher) rankings(ctx context.Context, target Target) []model.RankingSignal {
	if len(target.Queries) == 0 {
		return nil
	}
	if e.ranker == nil {
		e.unavailable(SourceRankings, target.Domain, errNotConfigured)
		return nil
	}

	results := make([]*model.RankingSignal, len(target.Queries))
	var g errgroup.Group
	g.SetLimit(maxRankQueries)
	for i, query := range target.Queries {
		g.Go(func() error {
			sig, err := e.ranker.Rank(ctx, query, target.Domain)
			if err != nil {
				e.unavailable(SourceRankings, target.Domain, err)
				return nil
			}
			results[i] = &sig
			return nil
		})
	}
	_ = g.Wait()

	var out []model.RankingSignal
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
