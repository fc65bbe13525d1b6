// Package cmd defines and implements the CLI commands for the noticeingest
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/app"
	"github.com/campusboard/notice-ingest/internal/clock/system"
	"github.com/campusboard/notice-ingest/internal/ingest"
	"github.com/campusboard/notice-ingest/internal/remind"
	"github.com/campusboard/notice-ingest/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. A variable so tests can inject a mock.
var newApp = app.New

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "noticeingest",
		Short: "Academic notice-board ingestion and reminder service.",
		Long: `noticeingest crawls the remote academic notice board on a fixed
cadence, ingests entries newer than the stored anchor, and pushes daily
deadline reminders to subscribed devices.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.InitConfig(cfgFile); err != nil {
				return fmt.Errorf("initialize configuration: %w", err)
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newRemindCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command execution failed: %v\n", err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// buildIngestion wires the ingestion scheduler from the app's services.
func buildIngestion(a *app.App) *ingest.Scheduler {
	cfg := a.Config()
	client := ingest.NewClient(ingest.FetchConfig{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.Source.Timeout,
	})
	logger := a.Logger().Named("ingest")
	return ingest.NewScheduler(
		ingest.NewListFetcher(client, cfg.Source.IndexURL, logger),
		ingest.NewDetailFetcher(client, logger),
		a.Store(),
		a.Archiver(),
		system.New(),
		cfg.Location(),
		cfg.Archive.Prefix,
		logger,
	)
}

// buildReminder wires the reminder scheduler from the app's services.
func buildReminder(a *app.App) *remind.Scheduler {
	cfg := a.Config()
	return remind.NewScheduler(
		a.Store(),
		a.Dispatcher(),
		system.New(),
		cfg.Location(),
		a.Logger().Named("remind"),
	)
}

func runOnce(ctx context.Context, logger *zap.Logger, name string, run func(context.Context) error) error {
	start := time.Now()
	if err := run(ctx); err != nil {
		return fmt.Errorf("%s cycle failed: %w", name, err)
	}
	logger.Info("cycle complete", zap.String("cycle", name), zap.Duration("took", time.Since(start)))
	return nil
}
