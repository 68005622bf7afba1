package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/aiaudit/internal/config"
	"github.com/nao1215/aiaudit/internal/database"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/pipeline"
	"github.com/nao1215/aiaudit/internal/report"
	"github.com/nao1215/aiaudit/internal/trend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	// errAuditsFailed is returned when at least one site could not be audited.
	errAuditsFailed = errors.New("audits failed")

	// errResultsNotHandled is returned when a finished audit could not be
	// reported or stored.
	errResultsNotHandled = errors.New("audit results not reported or stored")
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <site-url>...",
		Short: "Audit one or more sites for AI visibility",
		Long: `Audit discovers, fetches and scores the pages of each site.

Pages are discovered from the sitemap, robots.txt Sitemap directives and
internal links of the homepage. Every fetched page is analyzed for content,
structured data, trust and technical signals. Twelve categories are scored
and combined into a weighted composite between 0 and 100.

Results are saved to the history database unless --no-save is given.

Examples:
  # Audit a single site
  aiaudit audit https://clinic.example

  # Audit several sites, two at a time
  aiaudit audit -b 2 https://a.example https://b.example https://c.example

  # Only audit doctor pages and print the trend against the last audit
  aiaudit audit --filter doctors --compare https://clinic.example

  # Write a Markdown report
  aiaudit audit -m -o reports/clinic.md https://clinic.example

Configuration file (.aiaudit.yaml) example:
  sites:
    clinic.example:
      business_name: Shibuya Family Clinic
      address: 1-2-3 Shibuya, Tokyo
      queries:
        - shibuya internist
      max_pages: 30`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	addAuditFlags(cmd)

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("compare", false,
		"Also print the trend against the previous stored audit")

	return cmd
}

// addAuditFlags registers the flags shared by audit and watch.
func addAuditFlags(cmd *cobra.Command) {
	// Discovery
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to audit per site (1-100)")
	cmd.Flags().String("filter", config.DefaultFilterType,
		"Audit only one page family: blog, doctors, articles or all")
	cmd.Flags().Bool("no-sitemap", false, "Do not read sitemap.xml")
	cmd.Flags().Bool("no-robots", false, "Do not read Sitemap directives from robots.txt")
	cmd.Flags().Bool("no-crawl", false, "Do not follow internal links of the homepage")

	// Fetching
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page request")
	cmd.Flags().Duration("audit-timeout", config.DefaultAuditTimeout,
		"Timeout for a whole audit; pages fetched by then are scored")
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrent,
		"Number of concurrent page fetches per site")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to one site")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().Int("max-images", config.DefaultMaxImages,
		"Maximum number of images inspected for camera metadata")

	// Batch and storage
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites audited concurrently")
	cmd.Flags().Bool("no-save", false, "Do not save results to the history database")
	cmd.Flags().Int("keep", config.DefaultHistoryKeep,
		"Keep only the newest N audits per site after saving (0 keeps all)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics to this file after auditing")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .aiaudit.yaml in current or home directory)")
}

// buildAuditConfig creates a Config from the environment and the shared
// audit flags.
func buildAuditConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.FilterType, err = flags.GetString("filter"); err != nil {
		return nil, err
	}
	for name, dst := range map[string]*bool{
		"no-sitemap": &cfg.UseSitemap,
		"no-robots":  &cfg.UseRobots,
		"no-crawl":   &cfg.CrawlInternalLinks,
		"no-save":    &cfg.SaveToDB,
	} {
		disabled, err := flags.GetBool(name)
		if err != nil {
			return nil, err
		}
		*dst = !disabled
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.AuditTimeout, err = flags.GetDuration("audit-timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("crawl-delay"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.MaxImages, err = flags.GetInt("max-images"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.HistoryKeep, err = flags.GetInt("keep"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// These can also come from the environment; the flag only wins when set.
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	cfg.Targets = args
	if len(cfg.Targets) == 0 {
		cfg.Targets = cfg.SiteConfigs.SiteURLs()
	}
	return cfg, nil
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAuditConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cmd, cfg, compare, logger)
}

// runAudit audits every target and writes one report per site.
func runAudit(ctx context.Context, cmd *cobra.Command, cfg *config.Config, compare bool, logger *slog.Logger) error {
	var db *database.AuditDB
	if cfg.SaveToDB || compare {
		var err error
		if db, err = openDB(cfg); err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	reg := prometheus.NewRegistry()
	auditor, err := newAuditor(cfg, logger, metrics.New(reg))
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // Report errors surface from Write

	writer, err := report.NewWriter(reportFormat(cfg), out, report.WriterOptions{
		Version: getVersion(),
		Verbose: cfg.Verbose,
		Color:   cfg.ReportFile == "" && !color.NoColor,
	})
	if err != nil {
		return err
	}

	h := &resultHandler{cfg: cfg, db: db, writer: writer, compare: compare, logger: logger}
	targets := buildTargets(cfg)
	progress := cmd.ErrOrStderr()

	fmt.Fprintf(progress, "Auditing %d site(s) (concurrency: %d)...\n", len(targets), cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(auditor.Audit,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	tally := &batchTally{
		progress: progress,
		total:    len(targets),
		logger:   logger,
		// A finished audit is still reported and stored after Ctrl-C.
		handle: func(result *model.AuditResult) error {
			return h.handle(context.WithoutCancel(ctx), result)
		},
	}
	batchErr := bp.ProcessBatchWithCallback(ctx, targets, tally.record)

	fmt.Fprintf(progress, "Audit finished in %s\n", time.Since(start).Round(time.Millisecond))
	writeMetrics(cfg, reg, logger)

	if batchErr != nil {
		return batchErr
	}
	return tally.err()
}

// batchTally prints progress for each finished site, hands successful
// results on, and counts both audit and handling failures.
type batchTally struct {
	progress io.Writer
	total    int
	logger   *slog.Logger
	handle   func(*model.AuditResult) error

	mu         sync.Mutex
	failed     int
	handleErrs []error
}

func (b *batchTally) record(r pipeline.BatchResult, index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Err != nil {
		b.failed++
		fmt.Fprintf(b.progress, "[%d/%d] Audit failed: %s: %v\n", index+1, b.total, r.Target.URL, r.Err)
		return
	}
	fmt.Fprintf(b.progress, "[%d/%d] Audit completed: %s\n", index+1, b.total, r.Result.RootURL)
	if err := b.handle(r.Result); err != nil {
		b.logger.Error("failed to handle result", "site", r.Result.RootURL, "error", err)
		b.handleErrs = append(b.handleErrs, fmt.Errorf("%s: %w", r.Result.RootURL, err))
	}
}

// err combines the failures recorded so far. It is nil when every site
// was audited, reported and stored.
func (b *batchTally) err() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d %w", b.failed, b.total, errAuditsFailed))
	}
	if n := len(b.handleErrs); n > 0 {
		errs = append(errs, fmt.Errorf("%d of %d %w: %w", n, b.total, errResultsNotHandled, errors.Join(b.handleErrs...)))
	}
	return errors.Join(errs...)
}

// reportFormat maps the report flags to a writer format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// resultHandler reports, compares and stores finished audits.
type resultHandler struct {
	cfg     *config.Config
	db      *database.AuditDB
	writer  report.Writer
	compare bool
	logger  *slog.Logger
}

func (h *resultHandler) handle(ctx context.Context, result *model.AuditResult) error {
	var previous *model.AuditResult
	if h.compare && h.db != nil {
		latest, err := h.db.LatestResults(ctx, result.Key, 1)
		if err != nil {
			return err
		}
		if len(latest) > 0 {
			previous = latest[0]
		}
	}

	if _, err := h.writer.Write(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if previous != nil {
		if _, err := h.writer.WriteComparison(&report.Comparison{
			Previous: previous,
			Current:  result,
			Trend:    trend.Compare(previous, result),
		}); err != nil {
			return fmt.Errorf("failed to write comparison: %w", err)
		}
	}

	if h.cfg.SaveToDB {
		return saveResult(ctx, h.db, result, h.cfg.HistoryKeep, h.logger)
	}
	return nil
}

// saveResult stores result and prunes older audits of the site when keep
// is positive.
func saveResult(ctx context.Context, db *database.AuditDB, result *model.AuditResult, keep int, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	if err := db.SaveAuditResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save audit result: %w", err)
	}
	logger.Info("audit result saved", "site", result.Key, "id", result.ID)

	if keep <= 0 {
		return nil
	}
	removed, err := db.Prune(ctx, result.Key, keep)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Info("old audits pruned", "site", result.Key, "removed", removed)
	}
	return nil
}
