package aggregate

import (
	"fmt"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
)

// Registry holds aggregators in registration order, which is also the
// order of recommendations.
type Registry struct {
	aggregators []Aggregator
	byName      map[string]Aggregator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Aggregator)}
}

// DefaultRegistry returns a registry with every category.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range defaultAggregators() {
		r.Register(a)
	}
	return r
}

// Register adds an aggregator, replacing one with the same name in
// place.
func (r *Registry) Register(a Aggregator) {
	if _, ok := r.byName[a.Name()]; ok {
		for i, existing := range r.aggregators {
			if existing.Name() == a.Name() {
				r.aggregators[i] = a
			}
		}
	} else {
		r.aggregators = append(r.aggregators, a)
	}
	r.byName[a.Name()] = a
}

// Get returns the aggregator for a category.
func (r *Registry) Get(name string) (Aggregator, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns the category names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.aggregators))
	for _, a := range r.aggregators {
		names = append(names, a.Name())
	}
	return names
}

// AggregateAll scores every category. Each score's Weight is its share of
// the composite: the component weight split evenly among the component's
// categories.
func (r *Registry) AggregateAll(site *model.SiteSignals, weights score.Weights) (map[string]model.CategoryScore, error) {
	perComponent := make(map[Component]int)
	for _, a := range r.aggregators {
		perComponent[a.Component()]++
	}

	out := make(map[string]model.CategoryScore, len(r.aggregators))
	for _, a := range r.aggregators {
		cs, err := a.Aggregate(site)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate: %w", err)
		}
		cs.Weight = score.Round2(componentWeight(weights, a.Component())/float64(perComponent[a.Component()])*100) / 100
		out[a.Name()] = cs
	}
	return out, nil
}

// Recommend evaluates every category's rules, in registration order.
func (r *Registry) Recommend(site *model.SiteSignals) []model.Recommendation {
	var out []model.Recommendation
	for _, a := range r.aggregators {
		out = append(out, a.Recommend(site)...)
	}
	return out
}

func componentWeight(w score.Weights, c Component) float64 {
	switch c {
	case ComponentVisibility:
		return w.Visibility
	case ComponentTech:
		return w.Tech
	case ComponentContent:
		return w.Content
	case ComponentTrust:
		return w.Trust
	case ComponentLocal:
		return w.Local
	default:
		return 0
	}
}
