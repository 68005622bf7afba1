package pipeline

import (
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/model"
)

// Target is one site to audit.
type Target struct {
	// URL is the root URL as given by the user.
	URL string

	// BusinessName and Address identify the clinic for review lookups.
	BusinessName string
	Address      string

	// Queries are the search queries visibility is measured against.
	Queries []string

	// Discovery selects discovery strategies and limits. The zero value
	// selects crawler.DefaultOptions.
	Discovery crawler.Options

	// Client, when set, replaces the auditor's client for this site. It
	// carries per-site headers and request spacing.
	Client fetch.Client
}

// Key returns the normalized site key of the target.
func (t Target) Key() string {
	return crawler.Key(t.URL)
}

// Audit is the state of one audit run, extended by each step.
type Audit struct {
	Target Target

	// Signals accumulates everything the steps extract.
	Signals *model.SiteSignals

	// Pages holds the fetched pages until signals are extracted.
	Pages []model.FetchedPage

	// Result is set by the scoring step.
	Result *model.AuditResult

	// TimedOut is true when the audit deadline cut the run short.
	TimedOut bool

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// Err is the last step error.
	Err error
}

// NewAudit creates the state for auditing target.
func NewAudit(target Target) *Audit {
	target.URL = crawler.EnsureScheme(target.URL)
	if isZeroOptions(target.Discovery) {
		target.Discovery = crawler.DefaultOptions()
	}
	return &Audit{
		Target:  target,
		Signals: &model.SiteSignals{RootURL: target.URL},
	}
}

func isZeroOptions(o crawler.Options) bool {
	return !o.UseSitemap && !o.UseRobots && !o.CrawlInternalLinks &&
		o.MaxPages == 0 && o.FilterType == "" && len(o.IgnorePatterns) == 0
}
