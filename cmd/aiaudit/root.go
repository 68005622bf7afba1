package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for aiaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aiaudit",
		Short: "Audit how visible a clinic website is to AI assistants",
		Long: `aiaudit audits clinic websites for AI visibility.

It discovers pages from the sitemap, robots.txt and internal links, fetches
them concurrently, extracts content, schema, trust and technical signals and
scores twelve categories into a weighted composite. Results are stored so
that later audits can be compared.

API keys for review, ranking and backlink lookups are read from the
environment (AIAUDIT_PLACES_API_KEY, AIAUDIT_SEARCH_API_KEY,
AIAUDIT_SEARCH_ENGINE_ID, AIAUDIT_FIRECRAWL_API_KEY) or from a .env file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("db-dir", "", "History database directory (default: XDG data directory)")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
