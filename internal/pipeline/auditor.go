package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/aiaudit/internal/aggregate"
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/enrich"
	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/score"
)

// DefaultAuditTimeout bounds one audit run.
const DefaultAuditTimeout = 5 * time.Minute

// ErrNoResult is returned when an audit ended before it was scored.
var ErrNoResult = errors.New("audit produced no result")

// Auditor runs audits. It is safe for concurrent use.
type Auditor struct {
	client       fetch.Client
	enricher     *enrich.Enricher
	engine       *score.Engine
	registry     *aggregate.Registry
	recorder     *metrics.Recorder
	logger       *slog.Logger
	fetchOpts    fetch.Options
	auditTimeout time.Duration
	maxImages    int
	retryBackoff time.Duration
	now          func() time.Time
	inflight     InFlight
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithAuditLogger sets the logger passed to every component.
func WithAuditLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithEnricher sets the enrichment sources.
func WithEnricher(e *enrich.Enricher) AuditorOption {
	return func(a *Auditor) {
		a.enricher = e
	}
}

// WithEngine sets the composite engine.
func WithEngine(e *score.Engine) AuditorOption {
	return func(a *Auditor) {
		a.engine = e
	}
}

// WithRegistry sets the category aggregators.
func WithRegistry(r *aggregate.Registry) AuditorOption {
	return func(a *Auditor) {
		a.registry = r
	}
}

// WithRecorder records audit metrics.
func WithRecorder(r *metrics.Recorder) AuditorOption {
	return func(a *Auditor) {
		a.recorder = r
	}
}

// WithFetchOptions sets the pool size and per-request timeout.
func WithFetchOptions(opts fetch.Options) AuditorOption {
	return func(a *Auditor) {
		a.fetchOpts = opts
	}
}

// WithAuditTimeout bounds each audit. Zero disables the deadline.
func WithAuditTimeout(d time.Duration) AuditorOption {
	return func(a *Auditor) {
		a.auditTimeout = d
	}
}

// WithMaxImages caps the images inspected for EXIF metadata.
func WithMaxImages(n int) AuditorOption {
	return func(a *Auditor) {
		a.maxImages = n
	}
}

// WithRetryBackoff sets the delay before a transient fetch is retried.
func WithRetryBackoff(d time.Duration) AuditorOption {
	return func(a *Auditor) {
		a.retryBackoff = d
	}
}

// WithClock sets the clock used for result timestamps.
func WithClock(now func() time.Time) AuditorOption {
	return func(a *Auditor) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuditor creates an Auditor that fetches through client.
func NewAuditor(client fetch.Client, opts ...AuditorOption) *Auditor {
	a := &Auditor{
		client:       client,
		logger:       slog.New(slog.DiscardHandler),
		auditTimeout: DefaultAuditTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Pipeline builds the audit steps around client. Each audit gets its own
// pipeline so that per-run fetch memoization does not leak between runs.
func (a *Auditor) Pipeline(client fetch.Client) *Pipeline {
	orchOpts := []fetch.OrchestratorOption{fetch.WithLogger(a.logger)}
	if a.retryBackoff > 0 {
		orchOpts = append(orchOpts, fetch.WithRetryBackoff(a.retryBackoff))
	}

	p := New(WithLogger(a.logger))
	p.AddSteps(
		NewDiscoverStep(crawler.NewDiscoverer(client,
			crawler.WithLogger(a.logger),
			crawler.WithRequestTimeout(a.fetchOpts.PerRequestTimeout),
		)),
		NewWellKnownStep(client, a.logger),
		NewFetchStep(fetch.NewOrchestrator(client, orchOpts...), a.fetchOpts, a.recorder),
		NewExtractStep(),
		NewImageryStep(client, a.maxImages, a.logger),
		NewEnrichStep(a.enricher),
		NewScoreStep(a.registry, a.engine, a.now),
	)
	return p
}

// Audit audits one site. Concurrent audits of the same key share one
// run, which uses the context of the caller that started it. When the
// audit deadline passes, the pages fetched so far are scored and the
// result is marked as timed out.
func (a *Auditor) Audit(ctx context.Context, target Target) (*model.AuditResult, error) {
	result, shared, err := a.inflight.Do(target.Key(), func() (*model.AuditResult, error) {
		return a.run(ctx, target)
	})
	if shared {
		a.logger.Debug("joined in-flight audit", "site", target.Key())
	}
	return result, err
}

func (a *Auditor) run(ctx context.Context, target Target) (*model.AuditResult, error) {
	start := time.Now()
	if a.auditTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.auditTimeout)
		defer cancel()
	}

	audit := NewAudit(target)
	a.logger.Info("audit started", "site", audit.Target.URL)

	client := a.client
	if target.Client != nil {
		client = target.Client
	}
	err := a.Pipeline(fetch.NewMemoClient(client)).Execute(ctx, audit)
	if audit.Result == nil {
		if a.recorder != nil {
			a.recorder.RecordFailure(time.Since(start))
		}
		if err == nil {
			err = ErrNoResult
		}
		return nil, err
	}

	if a.recorder != nil {
		a.recorder.RecordAudit(audit.Result, time.Since(start))
	}
	a.logger.Info("audit completed",
		"site", audit.Target.URL,
		"composite", audit.Result.Composite,
		"fetched", audit.Result.FetchedPages,
		"failed", len(audit.Result.FailedPages),
		"timed_out", audit.Result.TimedOut,
		"elapsed", time.Since(start),
	)
	return audit.Result, err
}
