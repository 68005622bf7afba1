package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nao1215/aiaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxConcurrent     = 5
	DefaultPerRequestTimeout = 15 * time.Second
	DefaultRetryBackoff      = 250 * time.Millisecond
)

// Options controls one FetchAll call.
type Options struct {
	// MaxConcurrent is the worker pool size.
	MaxConcurrent int

	// PerRequestTimeout bounds each attempt, including the body read.
	PerRequestTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.PerRequestTimeout <= 0 {
		o.PerRequestTimeout = DefaultPerRequestTimeout
	}
	return o
}

// Orchestrator fetches batches of URLs over a bounded worker pool.
type Orchestrator struct {
	client       Client
	logger       *slog.Logger
	retryBackoff time.Duration
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger for fetch events.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryBackoff sets the pause before the single retry.
func WithRetryBackoff(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.retryBackoff = d
		}
	}
}

// NewOrchestrator creates an Orchestrator around client.
func NewOrchestrator(client Client, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:       client,
		logger:       slog.New(slog.DiscardHandler),
		retryBackoff: DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// outcome is what happened to one queued URL.
type outcome struct {
	page      *model.FetchedPage
	failure   *model.FetchFailure
	abandoned bool
}

// accumulator collects outcomes from concurrent workers, one slot per
// queued URL, so the batch reads back in input order whatever order the
// workers finish in.
type accumulator struct {
	mu    sync.Mutex
	queue []string
	slots []outcome
}

func newAccumulator(queue []string) *accumulator {
	return &accumulator{queue: queue, slots: make([]outcome, len(queue))}
}

func (a *accumulator) success(i int, page model.FetchedPage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots[i] = outcome{page: &page}
}

func (a *accumulator) failure(i int, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots[i] = outcome{failure: &model.FetchFailure{URL: a.queue[i], Reason: reason}}
}

func (a *accumulator) abandon(from, to int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := from; i < to; i++ {
		a.slots[i] = outcome{
			failure:   &model.FetchFailure{URL: a.queue[i], Reason: ErrAbandoned.Error()},
			abandoned: true,
		}
	}
}

// result flattens the slots in queue order.
func (a *accumulator) result() model.FetchBatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out model.FetchBatchResult
	for i, slot := range a.slots {
		switch {
		case slot.page != nil:
			out.Succeeded = append(out.Succeeded, *slot.page)
		case slot.failure != nil:
			out.Failed = append(out.Failed, *slot.failure)
			if slot.abandoned {
				out.Abandoned = append(out.Abandoned, a.queue[i])
			}
		}
	}
	return out
}

// FetchAll fetches every URL and returns once each one has succeeded or
// failed. Duplicate input URLs are fetched and reported once. When ctx is
// done, URLs not yet started are recorded as abandoned. Succeeded, Failed
// and Abandoned follow the order of urls.
func (o *Orchestrator) FetchAll(ctx context.Context, urls []string, opts Options) model.FetchBatchResult {
	opts = opts.withDefaults()

	var g errgroup.Group
	g.SetLimit(opts.MaxConcurrent)

	queue := dedupe(urls)
	acc := newAccumulator(queue)
	for i, u := range queue {
		if ctx.Err() != nil {
			acc.abandon(i, len(queue))
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				acc.abandon(i, i+1)
				return nil
			}
			o.fetchOne(ctx, i, u, opts.PerRequestTimeout, acc)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	result := acc.result()
	if len(result.Abandoned) > 0 {
		o.logger.Warn("fetch abandoned",
			"count", len(result.Abandoned),
			"urls", result.Abandoned,
			"reason", context.Cause(ctx))
	}
	return result
}

// fetchOne runs at most two attempts for a URL and records the outcome.
func (o *Orchestrator) fetchOne(ctx context.Context, i int, url string, timeout time.Duration, acc *accumulator) {
	attempt := func() (*Response, error) {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := o.client.Fetch(reqCtx, url)
		if err != nil {
			if ctx.Err() != nil || !IsTransient(err) {
				return nil, backoff.Permanent(err)
			}
			o.logger.Debug("fetch retrying", "url", url, "error", err)
			return nil, err
		}
		if !resp.OK() {
			return nil, backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
		}
		return resp, nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.retryBackoff), 1),
		ctx,
	)
	resp, err := backoff.RetryWithData(attempt, policy)
	if err != nil {
		o.logger.Warn("fetch failed", "url", url, "reason", err.Error())
		acc.failure(i, err.Error())
		return
	}
	acc.success(i, resp.Page())
}

// dedupe removes repeated URLs, keeping first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
