package metrics

import (
	"time"

	"github.com/nao1215/aiaudit/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "aiaudit"

// Audit outcome label values.
const (
	StatusCompleted = "completed"
	StatusTimedOut  = "timed_out"
	StatusFailed    = "failed"
)

// Recorder holds the audit metrics.
type Recorder struct {
	AuditsTotal      *prometheus.CounterVec
	AuditDuration    prometheus.Histogram
	PagesFetched     prometheus.Counter
	PagesFailed      prometheus.Counter
	FetchDuration    prometheus.Histogram
	CompositeScore   *prometheus.GaugeVec
	CategoryScore    *prometheus.GaugeVec
	DegradedSources  *prometheus.CounterVec
	LastAuditSeconds *prometheus.GaugeVec
}

// New creates a Recorder and registers its collectors on reg. A nil reg
// creates the collectors without registering them.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		AuditsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "audits_total",
				Help:      "Total number of audits by outcome",
			},
			[]string{"status"},
		),
		AuditDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "audit_duration_seconds",
				Help:      "Audit run duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		PagesFetched: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_fetched_total",
				Help:      "Total number of pages fetched successfully",
			},
		),
		PagesFailed: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_failed_total",
				Help:      "Total number of pages that could not be fetched",
			},
		),
		FetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "page_fetch_duration_seconds",
				Help:      "Page fetch duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
		),
		CompositeScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "composite_score",
				Help:      "Composite score of the latest audit per site",
			},
			[]string{"site"},
		),
		CategoryScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "category_score",
				Help:      "Category score of the latest audit per site",
			},
			[]string{"site", "category"},
		),
		DegradedSources: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "degraded_sources_total",
				Help:      "Total number of audits missing a signal source",
			},
			[]string{"source"},
		),
		LastAuditSeconds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_audit_timestamp_seconds",
				Help:      "Unix time of the latest audit per site",
			},
			[]string{"site"},
		),
	}
}

// RecordFetch records one fetch batch.
func (r *Recorder) RecordFetch(batch model.FetchBatchResult) {
	r.PagesFetched.Add(float64(len(batch.Succeeded)))
	r.PagesFailed.Add(float64(len(batch.Failed)))
	for _, p := range batch.Succeeded {
		r.FetchDuration.Observe(p.Elapsed.Seconds())
	}
}

// RecordAudit records a finished audit.
func (r *Recorder) RecordAudit(result *model.AuditResult, elapsed time.Duration) {
	status := StatusCompleted
	if result.TimedOut {
		status = StatusTimedOut
	}
	r.AuditsTotal.WithLabelValues(status).Inc()
	r.AuditDuration.Observe(elapsed.Seconds())

	r.CompositeScore.WithLabelValues(result.Key).Set(result.Composite)
	for name, cs := range result.Categories {
		r.CategoryScore.WithLabelValues(result.Key, name).Set(cs.Value)
	}
	for _, src := range result.Degraded {
		r.DegradedSources.WithLabelValues(src).Inc()
	}
	r.LastAuditSeconds.WithLabelValues(result.Key).Set(float64(result.Timestamp.Unix()))
}

// RecordFailure records an audit that returned an error.
func (r *Recorder) RecordFailure(elapsed time.Duration) {
	r.AuditsTotal.WithLabelValues(StatusFailed).Inc()
	r.AuditDuration.Observe(elapsed.Seconds())
}
