package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/aiaudit/internal/crawler"
	"github.com/nao1215/aiaudit/internal/database"
	"github.com/nao1215/aiaudit/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-url]",
		Short: "List stored audits",
		Long: `History lists the audited sites, or the stored audits of one site.

Examples:
  # List every audited site
  aiaudit history

  # List the audits of a site
  aiaudit history https://clinic.example

  # Show the pages of one audit
  aiaudit history --pages 3f0c...

  # Keep only the newest 10 audits of a site
  aiaudit history --prune 10 https://clinic.example`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("pages", "", "Show the pages of the audit with this ID")
	cmd.Flags().Int("prune", 0, "Delete all but the newest N audits of the site")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	pagesID, err := cmd.Flags().GetString("pages")
	if err != nil {
		return err
	}
	prune, err := cmd.Flags().GetInt("prune")
	if err != nil {
		return err
	}
	if prune > 0 && len(args) == 0 {
		return errNoSite
	}

	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case pagesID != "":
		return listAuditPages(ctx, out, db, pagesID)
	case len(args) == 0:
		return listAuditedSites(ctx, out, db)
	case prune > 0:
		key := crawler.Key(args[0])
		removed, err := db.Prune(ctx, key, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d audit(s) of %s\n", removed, key)
		return nil
	default:
		return listAuditHistory(ctx, out, db, crawler.Key(args[0]))
	}
}

// listAuditedSites lists every site with stored audits.
func listAuditedSites(ctx context.Context, out io.Writer, db *database.AuditDB) error {
	sites, err := db.ListAuditedSites(ctx)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Fprintln(out, "No audited sites found in the database.")
		fmt.Fprintln(out, "\nUse 'aiaudit audit <site-url>' to audit a site.")
		return nil
	}

	fmt.Fprintf(out, "Audited sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'aiaudit history <site-url>' to see the audits of a site.")
	return nil
}

// listAuditHistory lists the audits of one site, newest first.
func listAuditHistory(ctx context.Context, out io.Writer, db *database.AuditDB, key string) error {
	history, err := db.GetAuditHistoryWithMetadata(ctx, key)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", key)
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", key, len(history))
	fmt.Fprintf(out, "  %-36s  %-19s  %9s  %-9s  %-7s  %s\n", "ID", "Date", "Composite", "Grade", "Pages", "Degraded")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))
	for _, meta := range history {
		degraded := strings.Join(meta.Degraded, ",")
		if degraded == "" {
			degraded = "-"
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %9.2f  %-9s  %-7s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Composite,
			report.Grade(meta.Composite),
			fmt.Sprintf("%d/%d", meta.FetchedPages, meta.FetchedPages+meta.FailedPages),
			degraded,
		)
	}
	fmt.Fprintln(out, "\nUse 'aiaudit compare <site-url>' to compare the latest two audits.")
	return nil
}

// listAuditPages lists the pages of one audit.
func listAuditPages(ctx context.Context, out io.Writer, db *database.AuditDB, id string) error {
	pages, err := db.AuditPages(ctx, id)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintf(out, "No pages found for audit %s\n", id)
		return nil
	}

	fmt.Fprintf(out, "Pages of audit %s (%d):\n\n", id, len(pages))
	for _, p := range pages {
		if p.FailureReason != "" {
			fmt.Fprintf(out, "  [failed] %s (%s)\n", p.URL, p.FailureReason)
			continue
		}
		fmt.Fprintf(out, "  [%d] %-10s %s\n", p.StatusCode, p.Kind, p.URL)
	}
	return nil
}
