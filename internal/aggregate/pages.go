package aggregate

import (
	"net/url"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
	"github.com/samber/lo"
)

// contentKinds are the page kinds that carry editorial content.
var contentKinds = []model.PageKind{model.PageKindBlog, model.PageKindArticle}

// contentPages returns the fetched blog and article pages.
func contentPages(site *model.SiteSignals) []model.PageSignals {
	return lo.Filter(site.Pages, func(p model.PageSignals, _ int) bool {
		return lo.Contains(contentKinds, p.Kind)
	})
}

// contentCandidates returns how many blog and article pages were
// discovered, fetched or not.
func contentCandidates(site *model.SiteSignals) int {
	return lo.SumBy(contentKinds, site.CandidatesOfKind)
}

// ratio is the share of pages satisfying pred, over total.
func ratio(pages []model.PageSignals, total int, pred func(model.PageSignals) bool) float64 {
	return score.Ratio(lo.CountBy(pages, pred), total)
}

// anyPage reports whether any fetched page satisfies pred.
func anyPage(site *model.SiteSignals, pred func(model.PageSignals) bool) bool {
	return lo.ContainsBy(site.AllPages(), pred)
}

// homepage returns the homepage signals, falling back to the first page
// classified as home. The zero value is returned when neither exists.
func homepage(site *model.SiteSignals) model.PageSignals {
	if site.Homepage != nil {
		return *site.Homepage
	}
	if p, ok := lo.Find(site.Pages, func(p model.PageSignals) bool { return p.Kind == model.PageKindHome }); ok {
		return p
	}
	return model.PageSignals{}
}

// siteHTTPS reports whether the site is served over HTTPS, preferring the
// fetched homepage and falling back to the root URL's scheme.
func siteHTTPS(site *model.SiteSignals) bool {
	if home := homepage(site); home.URL != "" {
		return home.Technical.HTTPS
	}
	u, err := url.Parse(site.RootURL)
	return err == nil && u.Scheme == "https"
}
