package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/aiaudit/internal/config"
	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/database"
	"github.com/nao1215/aiaudit/internal/model"
	"github.com/nao1215/aiaudit/internal/report"
	"github.com/nao1215/aiaudit/internal/trend"
	"github.com/spf13/cobra"
)

// errNotEnoughAudits is returned when a site has fewer than two audits.
var errNotEnoughAudits = errors.New("at least 2 audits are required for comparison")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <site-url>",
		Short: "Compare the latest audit of a site with an earlier one",
		Long: `Compare shows how the scores of a site changed between two stored audits.

By default the latest audit is compared with the one before it. Every
category and the composite are listed with their percent change, sorted by
the size of the change. Changes above 5% count as improved or declined.

Examples:
  # Compare the latest two audits
  aiaudit compare https://clinic.example

  # Compare with a specific audit (see 'aiaudit history <site>')
  aiaudit compare --with-id 3f0c... https://clinic.example

  # Compare with the first audit since a date
  aiaudit compare --since 2026-01-01 https://clinic.example

  # Output the comparison as Markdown
  aiaudit compare -m https://clinic.example`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("with-id", "i", "",
		"Compare with a specific audit by ID")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errNoSite
	}
	key := crawler.Key(args[0])

	withID, err := cmd.Flags().GetString("with-id")
	if err != nil {
		return err
	}
	since, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	previous, current, err := selectComparison(ctx, db, key, withID, since)
	if err != nil {
		return err
	}

	writer, err := report.NewWriter(reportFormat(cfg), cmd.OutOrStdout(), report.WriterOptions{Version: getVersion()})
	if err != nil {
		return err
	}
	_, err = writer.WriteComparison(&report.Comparison{
		Previous: previous,
		Current:  current,
		Trend:    trend.Compare(previous, current),
	})
	return err
}

// selectComparison picks the baseline and the latest audit of key.
func selectComparison(ctx context.Context, db *database.AuditDB, key, withID, since string) (previous, current *model.AuditResult, err error) {
	latest, err := db.LatestResults(ctx, key, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) == 0 {
		return nil, nil, fmt.Errorf("no audit history found for %s", key)
	}
	current = latest[0]

	switch {
	case withID != "":
		previous, err = db.GetAuditResultByID(ctx, withID)
		if err != nil {
			return nil, nil, err
		}
		if previous.Key != key {
			return nil, nil, fmt.Errorf("audit %s belongs to %s, not %s", withID, previous.Key, key)
		}
	case since != "":
		previous, err = firstAuditSince(ctx, db, key, since)
		if err != nil {
			return nil, nil, err
		}
	default:
		if len(latest) < 2 {
			return nil, nil, fmt.Errorf("%w (found 1)", errNotEnoughAudits)
		}
		previous = latest[1]
	}

	if previous.ID == current.ID {
		return nil, nil, fmt.Errorf("%w: the selected audit is the latest one", errNotEnoughAudits)
	}
	return previous, current, nil
}

// firstAuditSince returns the oldest audit of key at or after the date.
func firstAuditSince(ctx context.Context, db *database.AuditDB, key, since string) (*model.AuditResult, error) {
	date, err := time.Parse(time.DateOnly, since)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	history, err := db.GetAuditHistoryWithMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	// History is newest first.
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Timestamp.Before(date) {
			return db.GetAuditResultByID(ctx, history[i].ID)
		}
	}
	return nil, fmt.Errorf("no audits found since %s", since)
}
