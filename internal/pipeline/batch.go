package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/aiaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is the number of sites audited at once.
const DefaultBatchConcurrency = 3

// AuditFunc audits one target.
type AuditFunc func(ctx context.Context, target Target) (*model.AuditResult, error)

// BatchResult is the outcome of one site in a batch.
type BatchResult struct {
	Target Target
	Result *model.AuditResult
	Err    error
}

// BatchProcessor audits multiple sites concurrently. Each site runs its
// own audit with its own fetch pool.
type BatchProcessor struct {
	audit       AuditFunc
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that runs audit per target.
func NewBatchProcessor(audit AuditFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		audit:       audit,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.New(slog.DiscardHandler)
	}
	return bp
}

// ProcessBatch audits targets concurrently and returns one BatchResult
// per target in input order. A failed audit does not stop the others;
// the returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]BatchResult, error) {
	results := make([]BatchResult, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(r BatchResult, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessBatchWithCallback audits targets and calls callback as each one
// completes. callback runs on the goroutine that finished the audit and
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []Target,
	callback func(result BatchResult, index int),
) error {
	bp.logger.Info("starting batch audit",
		"total_sites", len(targets),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				callback(BatchResult{Target: target, Err: err}, i)
				return err
			}

			result, err := bp.audit(ctx, target)
			if err != nil {
				bp.logger.Warn("audit failed", "site", target.URL, "error", err)
			}
			callback(BatchResult{Target: target, Result: result, Err: err}, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch audit complete",
		"total_sites", len(targets),
		"elapsed", time.Since(start),
	)
	return err
}
