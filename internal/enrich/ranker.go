package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
)

// Searcher runs a search query.
type Searcher interface {
	Search(ctx context.Context, query string) (*SearchResults, error)
}

// Ranker derives ranking signals from search results.
type Ranker struct {
	search Searcher
}

// NewRanker creates a Ranker.
func NewRanker(search Searcher) *Ranker {
	return &Ranker{search: search}
}

// Rank reports where domain appears in the results for query. A domain
// missing from the first page of results is not visible.
func (r *Ranker) Rank(ctx context.Context, query, domain string) (model.RankingSignal, error) {
	results, err := r.search.Search(ctx, query)
	if err != nil {
		return model.RankingSignal{}, err
	}
	return rankIn(results, query, domain), nil
}

func rankIn(results *SearchResults, query, domain string) model.RankingSignal {
	sig := model.RankingSignal{Query: query}
	for i, item := range results.Items {
		if !onDomain(item.Link, domain) {
			continue
		}
		sig.Visible = true
		sig.Rank = i + 1
		sig.TotalResults = max(results.TotalResults, len(results.Items))
		sig.CompetitorScore = competitorScore(sig.Rank, len(results.Items))
		return sig
	}
	return sig
}

// competitorScore is the share of the other results on the page that
// rank below the site.
func competitorScore(rank, items int) float64 {
	if items <= 1 {
		return score.MaxScore
	}
	return score.Round2(float64(items-rank) / float64(items-1) * 100)
}

// onDomain reports whether rawURL is hosted on domain or a subdomain,
// ignoring "www.".
func onDomain(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
