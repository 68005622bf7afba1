package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Category names used as keys of AuditResult.Categories.
const (
	CategoryStructure   = "structure"
	CategoryTextQuality = "text_quality"
	CategoryAuthority   = "authority"
	CategoryTrust       = "trust"
	CategoryReputation  = "reputation"
	CategoryExperience  = "experience"
	CategoryLocal       = "local"
	CategoryTechnical   = "technical"
	CategoryMeta        = "meta"
	CategorySchema      = "schema"
	CategoryAIAccess    = "ai_access"
	CategoryVisibility  = "visibility"
)

// CategoryScore is the score of one category. Value is in [0,100] and
// Weight in [0,1]. ContributingSignals names the signal records the value
// was computed from, e.g. "page:https://example.com/blog/a#trust".
type CategoryScore struct {
	Name                string   `json:"name"`
	Value               float64  `json:"value"`
	Weight              float64  `json:"weight"`
	ContributingSignals []string `json:"contributing_signals,omitempty"`
}

// Recommendation is one actionable suggestion produced by an aggregator.
type Recommendation struct {
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
	Text     string   `json:"text"`
}

// AuditResult is the snapshot of one audit run. It is created once per
// run and is read-only afterwards.
type AuditResult struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// Key is the normalized root URL the result is stored under.
	Key string `json:"key"`

	// RootURL is the URL as given by the caller.
	RootURL string `json:"root_url"`

	// Categories maps category name to its score.
	Categories map[string]CategoryScore `json:"categories"`

	// Composite is the weighted composite score in [0,100].
	Composite float64 `json:"composite"`

	// Recommendations is ordered by category then rule order.
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	// Timestamp is when the audit finished.
	Timestamp time.Time `json:"timestamp"`

	// Discovery is the manifest the audit fetched from.
	Discovery PageDiscoveryManifest `json:"discovery"`

	// FetchedPages is the number of pages fetched successfully.
	FetchedPages int `json:"fetched_pages"`

	// FailedPages lists the pages that could not be fetched.
	FailedPages []FetchFailure `json:"failed_pages,omitempty"`

	// Degraded names the signal sources that were unavailable.
	Degraded []string `json:"degraded,omitempty"`

	// TimedOut is true when the audit-level deadline cut the run short.
	TimedOut bool `json:"timed_out"`

	// Signals holds the raw site signals. It is omitted from stored JSON
	// when nil.
	Signals *SiteSignals `json:"signals,omitempty"`
}

// NewAuditResult creates an empty result with a fresh run ID.
func NewAuditResult(rootURL, key string) *AuditResult {
	return &AuditResult{
		ID:         uuid.NewString(),
		Key:        key,
		RootURL:    rootURL,
		Categories: make(map[string]CategoryScore),
		Timestamp:  time.Now(),
	}
}

// CategoryNames returns the category names in sorted order.
func (r *AuditResult) CategoryNames() []string {
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score returns the value of the named category and whether it exists.
func (r *AuditResult) Score(name string) (float64, bool) {
	c, ok := r.Categories[name]
	return c.Value, ok
}

// RecommendationsByPriority returns the recommendations with the given
// priority, preserving order.
func (r *AuditResult) RecommendationsByPriority(p Priority) []Recommendation {
	var out []Recommendation
	for _, rec := range r.Recommendations {
		if rec.Priority == p {
			out = append(out, rec)
		}
	}
	return out
}
