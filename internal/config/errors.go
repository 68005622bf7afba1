package config

import "errors"

// Configuration validation errors returned by Config.Validate. Callers
// match them with errors.Is.
var (
	// ErrNoTarget is returned when no site URL was given.
	ErrNoTarget = errors.New("no target specified: provide a site URL or list sites in the config file")

	// ErrInvalidTimeout is returned when a request or audit timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is outside 1..100.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be between 1 and 100")

	// ErrInvalidFilterType is returned for a filter other than blog, doctors, articles or all.
	ErrInvalidFilterType = errors.New("invalid filter type: must be one of blog, doctors, articles, all")

	// ErrInvalidMaxConcurrent is returned when the fetch pool size is not positive.
	ErrInvalidMaxConcurrent = errors.New("invalid max concurrent: must be positive")

	// ErrInvalidBatchSize is returned when the number of sites audited at once is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidSchedule is returned when a watch schedule is not a valid cron expression.
	ErrInvalidSchedule = errors.New("invalid schedule: must be a cron expression or descriptor")
)
