package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// newIngestCmd creates the 'ingest' subcommand: one crawl cycle, then exit.
// Useful for backfills and operational checks.
func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run a single ingestion cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			scheduler := buildIngestion(a)
			return runOnce(cmd.Context(), a.Logger(), "ingestion", func(ctx context.Context) error {
				_, err := scheduler.RunCycle(ctx)
				return err
			})
		},
	}
}
