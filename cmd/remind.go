package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// newRemindCmd creates the 'remind' subcommand: one reminder cycle, then
// exit.
func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run a single reminder cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			scheduler := buildReminder(a)
			return runOnce(cmd.Context(), a.Logger(), "reminder", func(ctx context.Context) error {
				_, err := scheduler.RunCycle(ctx)
				return err
			})
		},
	}
}
