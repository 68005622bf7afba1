package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/aiaudit/internal/config"
	"github.com/nao1215/aiaudit/internal/database"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/pipeline"
	"github.com/nao1215/aiaudit/internal/trend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <site-url>...",
		Short: "Re-audit sites on a schedule",
		Long: `Watch audits the given sites on a cron schedule until interrupted.

Each round audits every site, stores the result and logs the change of the
composite against the previous audit. With --metrics-file the Prometheus
metrics are rewritten after every round, for node_exporter's textfile
collector.

The schedule accepts standard five-field cron expressions and descriptors
such as @daily, @hourly or "@every 6h".

Examples:
  # Audit two sites every morning at 6:00
  aiaudit watch --schedule "0 6 * * *" https://a.example https://b.example

  # Audit every 12 hours, skipping sites audited in the last 6 hours
  aiaudit watch --schedule "@every 12h" --min-interval 6h https://clinic.example`,
		Args: cobra.ArbitraryArgs,
		RunE: runWatchCmd,
	}

	addAuditFlags(cmd)
	cmd.Flags().String("schedule", config.DefaultSchedule, "Cron schedule of the audits")
	cmd.Flags().Bool("run-now", true, "Run one round immediately on start")
	cmd.Flags().Duration("min-interval", 0,
		"Skip sites audited more recently than this (0 audits every round)")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAuditConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Schedule, err = cmd.Flags().GetString("schedule"); err != nil {
		return err
	}
	runNow, err := cmd.Flags().GetBool("run-now")
	if err != nil {
		return err
	}
	minInterval, err := cmd.Flags().GetDuration("min-interval")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateSchedule(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	w, err := newWatcher(cfg, db, minInterval, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	c := cron.New(
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)
	if _, err := c.AddFunc(cfg.Schedule, func() { w.round(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule audits: %w", err)
	}

	if runNow {
		w.round(ctx)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d site(s) on schedule %q. Press Ctrl-C to stop.\n", len(cfg.Targets), cfg.Schedule)
	c.Start()
	<-ctx.Done()

	// Wait for a running round to finish; its audits see the cancelled ctx.
	<-c.Stop().Done()
	return nil
}

// watcher runs one audit round over every target.
type watcher struct {
	cfg         *config.Config
	db          *database.AuditDB
	auditor     *pipeline.Auditor
	reg         *prometheus.Registry
	minInterval time.Duration
	out         io.Writer
	logger      *slog.Logger
	now         func() time.Time
}

func newWatcher(cfg *config.Config, db *database.AuditDB, minInterval time.Duration, out io.Writer, logger *slog.Logger) (*watcher, error) {
	reg := prometheus.NewRegistry()
	auditor, err := newAuditor(cfg, logger, metrics.New(reg))
	if err != nil {
		return nil, err
	}
	return &watcher{
		cfg:         cfg,
		db:          db,
		auditor:     auditor,
		reg:         reg,
		minInterval: minInterval,
		out:         out,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// round audits the targets that are due and stores the results.
func (w *watcher) round(ctx context.Context) {
	targets := w.dueTargets(ctx)
	if len(targets) == 0 {
		w.logger.Info("no sites due for audit")
		return
	}

	bp := pipeline.NewBatchProcessor(w.auditor.Audit,
		pipeline.WithConcurrency(w.cfg.BatchSize),
		pipeline.WithBatchLogger(w.logger),
	)
	results, err := bp.ProcessBatch(ctx, targets)
	if err != nil {
		w.logger.Warn("audit round interrupted", "error", err)
	}

	for _, r := range results {
		if r.Result == nil {
			if r.Err != nil {
				w.logger.Error("audit failed", "site", r.Target.URL, "error", r.Err)
			}
			continue
		}
		w.record(context.WithoutCancel(ctx), r.Result)
	}
	writeMetrics(w.cfg, w.reg, w.logger)
}

// dueTargets returns the targets not audited within minInterval.
func (w *watcher) dueTargets(ctx context.Context) []pipeline.Target {
	all := buildTargets(w.cfg)
	if w.minInterval <= 0 {
		return all
	}

	due := make([]pipeline.Target, 0, len(all))
	for _, t := range all {
		recent, err := w.db.HasRecentAudit(ctx, t.Key(), w.minInterval, w.now())
		if err != nil {
			w.logger.Warn("failed to check audit history", "site", t.Key(), "error", err)
		}
		if recent {
			w.logger.Debug("skipping recently audited site", "site", t.Key())
			continue
		}
		due = append(due, t)
	}
	return due
}

// record prints the change against the previous audit and stores result.
func (w *watcher) record(ctx context.Context, result *model.AuditResult) {
	latest, err := w.db.LatestResults(ctx, result.Key, 1)
	if err != nil {
		w.logger.Warn("failed to load previous audit", "site", result.Key, "error", err)
	}

	var previous *model.AuditResult
	if len(latest) > 0 {
		previous = latest[0]
	}
	tr := trend.Compare(previous, result)
	fmt.Fprintf(w.out, "%s  %s  composite %.2f  %s\n",
		result.Timestamp.Format(time.DateTime), result.Key, result.Composite, tr.Summary)

	if err := saveResult(ctx, w.db, result, w.cfg.HistoryKeep, w.logger); err != nil {
		w.logger.Error("failed to save audit result", "site", result.Key, "error", err)
	}
}

// cronLogger adapts slog to cron's logger. Scheduler chatter goes to the
// debug level.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
