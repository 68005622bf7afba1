package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/fetch"
	"github.com/robfig/cron/v3"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "aiaudit"

	// DefaultTimeout bounds each page request.
	DefaultTimeout = fetch.DefaultPerRequestTimeout

	// DefaultAuditTimeout bounds a whole audit. Pages not fetched by then
	// are abandoned and the rest is scored.
	DefaultAuditTimeout = 5 * time.Minute

	// DefaultMaxPages is the page cap per audit.
	DefaultMaxPages = crawler.DefaultMaxPages

	// DefaultFilterType audits every page family.
	DefaultFilterType = string(crawler.FilterAll)

	// DefaultMaxConcurrent is the fetch pool size per audit.
	DefaultMaxConcurrent = fetch.DefaultMaxConcurrent

	// DefaultBatchSize is the number of sites audited at once.
	DefaultBatchSize = 3

	// DefaultCrawlDelay spaces requests to one site.
	DefaultCrawlDelay = 100 * time.Millisecond

	// DefaultUserAgent identifies aiaudit in HTTP requests.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxImages caps the images inspected for EXIF metadata.
	DefaultMaxImages = 10

	// DefaultSchedule re-audits once a day for watch.
	DefaultSchedule = "@daily"

	// DefaultHistoryKeep is the number of audits kept per site when
	// pruning. Zero keeps everything.
	DefaultHistoryKeep = 0
)

// Config holds all configuration options. It is populated from CLI flags,
// the environment and the config file, and passed down explicitly.
type Config struct {
	// Targets are the site URLs to audit.
	Targets []string

	// Timeout bounds each page request, including the body read.
	Timeout time.Duration

	// AuditTimeout bounds one audit run.
	AuditTimeout time.Duration

	// MaxPages caps the discovered pages per audit (1..100).
	MaxPages int

	// FilterType restricts audited pages to blog, doctors, articles or all.
	FilterType string

	// MaxConcurrent is the fetch pool size per audit.
	MaxConcurrent int

	// BatchSize is the number of sites audited concurrently.
	BatchSize int

	// UseSitemap, UseRobots and CrawlInternalLinks select discovery strategies.
	UseSitemap         bool
	UseRobots          bool
	CrawlInternalLinks bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// ConfigFilePath is the path to the config file. When empty the file
	// is searched for; see FindConfigFile.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport and MarkdownReport select the report format. They are
	// mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores results for later comparison.
	SaveToDB bool

	// HistoryKeep prunes older audits of a site after saving. Zero keeps
	// every audit.
	HistoryKeep int

	// CrawlDelay is the minimum spacing between requests.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// MaxImages caps the images inspected for EXIF metadata.
	MaxImages int

	// Schedule is the cron expression watch re-audits on.
	Schedule string

	// MetricsFile is where Prometheus metrics are written after each
	// audit. Empty disables the export.
	MetricsFile string

	// APIKeys are the enrichment credentials.
	APIKeys APIKeys
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:            DefaultTimeout,
		AuditTimeout:       DefaultAuditTimeout,
		MaxPages:           DefaultMaxPages,
		FilterType:         DefaultFilterType,
		MaxConcurrent:      DefaultMaxConcurrent,
		BatchSize:          DefaultBatchSize,
		UseSitemap:         true,
		UseRobots:          true,
		CrawlInternalLinks: true,
		CrawlDelay:         DefaultCrawlDelay,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		MaxImages:          DefaultMaxImages,
		Schedule:           DefaultSchedule,
		HistoryKeep:        DefaultHistoryKeep,
		DBDir:              XDGDataDir(),
		SaveToDB:           true,
	}
}

// XDGDataDir returns the XDG data directory, where the history database
// lives. On Linux: ~/.local/share/aiaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory.
// On Linux: ~/.config/aiaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory.
// On Linux: ~/.cache/aiaudit
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the settings an audit run needs and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 || c.AuditTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxPages < 1 || c.MaxPages > crawler.MaxPagesLimit {
		return ErrInvalidMaxPages
	}
	if !crawler.FilterType(c.FilterType).Valid() {
		return ErrInvalidFilterType
	}
	if c.MaxConcurrent <= 0 {
		return ErrInvalidMaxConcurrent
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// ValidateSchedule checks that Schedule parses as a standard cron
// expression or a descriptor such as "@daily".
func (c *Config) ValidateSchedule() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, c.Schedule, err)
	}
	return nil
}

// SiteConfig returns the merged per-site settings for siteURL. It returns
// the zero SiteConfig when no config file was loaded.
func (c *Config) SiteConfig(siteURL string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(siteURL)
}

// DiscoveryOptions returns the discovery settings for one site, with the
// site's overrides applied.
func (c *Config) DiscoveryOptions(site SiteConfig) crawler.Options {
	opts := crawler.Options{
		UseSitemap:         c.UseSitemap,
		UseRobots:          c.UseRobots,
		CrawlInternalLinks: c.CrawlInternalLinks,
		MaxPages:           c.MaxPages,
		FilterType:         crawler.FilterType(c.FilterType),
		IgnorePatterns:     site.IgnorePatterns,
	}
	if site.MaxPages > 0 {
		opts.MaxPages = min(site.MaxPages, crawler.MaxPagesLimit)
	}
	if site.FilterType != "" && crawler.FilterType(site.FilterType).Valid() {
		opts.FilterType = crawler.FilterType(site.FilterType)
	}
	return opts
}
