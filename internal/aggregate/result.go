package aggregate

import (
	"fmt"
	"time"

	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
)

// Degraded source names recorded on an AuditResult.
const (
	DegradedReputation = "reputation"
	DegradedBacklinks  = "backlinks"
	DegradedVisibility = "visibility"
	DegradedDiscovery  = "discovery"
)

// componentCategories lists the categories averaged into each composite
// component.
var componentCategories = map[Component][]string{
	ComponentVisibility: {model.CategoryVisibility},
	ComponentTech:       {model.CategoryTechnical, model.CategoryAIAccess, model.CategorySchema, model.CategoryMeta},
	ComponentContent:    {model.CategoryStructure, model.CategoryTextQuality},
	ComponentTrust:      {model.CategoryTrust, model.CategoryAuthority, model.CategoryExperience},
	ComponentLocal:      {model.CategoryLocal, model.CategoryReputation},
}

// BuildResult scores every category of site with the default registry and
// combines them into an AuditResult.
func BuildResult(engine *score.Engine, site *model.SiteSignals, now time.Time) (*model.AuditResult, error) {
	return DefaultRegistry().BuildResult(engine, site, now)
}

// BuildResult scores every registered category and combines them into an
// AuditResult stamped with now.
func (r *Registry) BuildResult(engine *score.Engine, site *model.SiteSignals, now time.Time) (*model.AuditResult, error) {
	if engine == nil {
		engine = score.MustDefaultEngine()
	}

	categories, err := r.AggregateAll(site, engine.Weights())
	if err != nil {
		return nil, err
	}

	composite, err := engine.Composite(CompositeInputs(categories))
	if err != nil {
		return nil, fmt.Errorf("failed to compute composite: %w", err)
	}

	result := model.NewAuditResult(site.RootURL, crawler.Key(site.RootURL))
	result.Categories = categories
	result.Composite = composite
	result.Recommendations = r.Recommend(site)
	result.Timestamp = now
	result.Discovery = site.Discovery
	result.FetchedPages = len(site.AllPages())
	result.FailedPages = site.FetchFailures
	result.Degraded = degradedSources(site)
	result.Signals = site
	return result, nil
}

// CompositeInputs averages category scores into the composite
// components. Missing categories count as 0; Other is always the
// baseline.
func CompositeInputs(categories map[string]model.CategoryScore) score.Inputs {
	mean := func(c Component) float64 {
		names := componentCategories[c]
		values := make([]float64, 0, len(names))
		for _, name := range names {
			values = append(values, categories[name].Value)
		}
		return score.Mean(values...)
	}
	return score.Inputs{
		Visibility: mean(ComponentVisibility),
		Tech:       mean(ComponentTech),
		Content:    mean(ComponentContent),
		Trust:      mean(ComponentTrust),
		Local:      mean(ComponentLocal),
	}
}

func degradedSources(site *model.SiteSignals) []string {
	var out []string
	e := site.Enrichment
	if e.Rating == nil && e.ReviewCount == nil {
		out = append(out, DegradedReputation)
	}
	if e.BacklinkCount == nil {
		out = append(out, DegradedBacklinks)
	}
	if len(e.Rankings) == 0 {
		out = append(out, DegradedVisibility)
	}
	if site.Discovery.IsFallback() {
		out = append(out, DegradedDiscovery)
	}
	return out
}
