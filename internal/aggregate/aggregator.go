package aggregate

import (
	"fmt"

	"github.com/nao1215/aiaudit/internal/model"
)

// Component is the composite component a category feeds.
type Component string

// Composite components.
const (
	ComponentVisibility Component = "visibility"
	ComponentTech       Component = "tech"
	ComponentContent    Component = "content"
	ComponentTrust      Component = "trust"
	ComponentLocal      Component = "local"
)

// Aggregator scores one category of a site.
type Aggregator interface {
	// Name is the category name, one of the model.Category constants.
	Name() string

	// Component is the composite component the category feeds.
	Component() Component

	// Aggregate computes the category score. Weight is left for the
	// Registry to fill in.
	Aggregate(site *model.SiteSignals) (model.CategoryScore, error)

	// Recommend evaluates the category's rules in order.
	Recommend(site *model.SiteSignals) []model.Recommendation
}

// rule fires a recommendation when its condition holds for the input.
type rule[T any] struct {
	id   string
	when func(T) bool
}

// category is an Aggregator built from a collector, a calculator and a
// rule list sharing one typed input.
type category[T any] struct {
	name      string
	component Component
	collect   func(*model.SiteSignals) T
	score     func(T) (float64, error)
	signals   func(*model.SiteSignals, T) []string
	rules     []rule[T]
}

func (c *category[T]) Name() string {
	return c.name
}

func (c *category[T]) Component() Component {
	return c.component
}

func (c *category[T]) Aggregate(site *model.SiteSignals) (model.CategoryScore, error) {
	in := c.collect(site)
	value, err := c.score(in)
	if err != nil {
		return model.CategoryScore{}, fmt.Errorf("%s: %w", c.name, err)
	}
	cs := model.CategoryScore{Name: c.name, Value: value}
	if c.signals != nil {
		cs.ContributingSignals = c.signals(site, in)
	}
	return cs, nil
}

func (c *category[T]) Recommend(site *model.SiteSignals) []model.Recommendation {
	in := c.collect(site)
	var out []model.Recommendation
	for _, r := range c.rules {
		if r.when(in) {
			out = append(out, model.NewRecommendation(c.name, r.id))
		}
	}
	return out
}
