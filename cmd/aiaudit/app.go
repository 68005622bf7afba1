package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/aiaudit/internal/config"
	"github.com/nao1215/aiaudit/internal/database"
	"github.com/nao1215/aiaudit/internal/enrich"
	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/nao1215/aiaudit/internal/log"
	"github.com/nao1215/aiaudit/internal/metrics"
	"github.com/nao1215/aiaudit/internal/pipeline"
	"github.com/nao1215/aiaudit/internal/score"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// getBoolFlag reads a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the logger selected by --verbose and --log-json.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// loadBaseConfig creates a Config from defaults, the environment and the
// persistent flags. Flags win over the environment.
func loadBaseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	env, err := config.LoadEnv(config.DefaultDotenvFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env)

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if f := cmd.Flags().Lookup("db-dir"); f != nil && f.Changed {
		cfg.DBDir = f.Value.String()
	}
	return cfg, nil
}

// loadSiteConfigs loads the site file. An explicitly given path must
// exist; otherwise a missing file means no per-site settings.
func loadSiteConfigs(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.SiteConfigs = file
	return nil
}

// openDB opens the history database in cfg.DBDir.
func openDB(cfg *config.Config) (*database.AuditDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newFetchClient creates the HTTP client for one site.
func newFetchClient(cfg *config.Config, site config.SiteConfig) *fetch.HTTPClient {
	return fetch.NewHTTPClient(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithCrawlDelay(cfg.CrawlDelay),
		fetch.WithHeaders(site.RequestHeaders()),
	)
}

// newEnricher builds the enrichment sources for the configured API keys.
// Sources without a key are left out and degrade to neutral scores.
func newEnricher(keys config.APIKeys, logger *slog.Logger) *enrich.Enricher {
	var src enrich.Sources
	if keys.PlacesAPIKey != "" {
		src.Places = enrich.NewPlacesClient(keys.PlacesAPIKey)
	}
	if keys.SearchEnabled() {
		src.Search = enrich.NewSearchClient(keys.SearchAPIKey, keys.SearchEngineID)
	}
	if keys.FirecrawlAPIKey != "" {
		src.CrawlService = enrich.NewCrawlServiceClient(keys.FirecrawlAPIKey)
	}
	return enrich.NewEnricher(src, enrich.WithLogger(logger))
}

// newAuditor creates the Auditor shared by every site of a run.
func newAuditor(cfg *config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*pipeline.Auditor, error) {
	engine, err := score.NewEngine(score.DefaultWeights, score.WithEngineLogger(logger))
	if err != nil {
		return nil, err
	}
	return pipeline.NewAuditor(newFetchClient(cfg, config.SiteConfig{}),
		pipeline.WithAuditLogger(logger),
		pipeline.WithEngine(engine),
		pipeline.WithEnricher(newEnricher(cfg.APIKeys, logger)),
		pipeline.WithRecorder(recorder),
		pipeline.WithFetchOptions(fetch.Options{
			MaxConcurrent:     cfg.MaxConcurrent,
			PerRequestTimeout: cfg.Timeout,
		}),
		pipeline.WithAuditTimeout(cfg.AuditTimeout),
		pipeline.WithMaxImages(cfg.MaxImages),
	), nil
}

// buildTargets turns the configured URLs into audit targets with their
// per-site settings applied.
func buildTargets(cfg *config.Config) []pipeline.Target {
	targets := make([]pipeline.Target, 0, len(cfg.Targets))
	for _, u := range cfg.Targets {
		site := cfg.SiteConfig(u)
		t := pipeline.Target{
			URL:          u,
			BusinessName: site.BusinessName,
			Address:      site.Address,
			Queries:      site.Queries,
			Discovery:    cfg.DiscoveryOptions(site),
			// Each site gets its own client so crawl delay and headers
			// apply per site.
			Client: newFetchClient(cfg, site),
		}
		targets = append(targets, t)
	}
	return targets
}

// openOutput returns the report destination and a close function. An
// empty path writes to fallback.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// writeMetrics exports the registry when a metrics file is configured.
func writeMetrics(cfg *config.Config, reg prometheus.Gatherer, logger *slog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
		logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
	}
}

var errNoSite = errors.New("site URL is required (use 'aiaudit history' to list audited sites)")
