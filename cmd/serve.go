package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/api"
	"github.com/campusboard/notice-ingest/internal/sched"
)

// newServeCmd creates the 'serve' subcommand: both recurring schedulers
// plus the admin HTTP API, running until interrupted.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingestion and reminder schedulers with the admin API",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := a.Config()
	logger := a.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestion := buildIngestion(a)
	reminder := buildReminder(a)

	ingestRunner := sched.NewRunner(
		"ingestion",
		sched.Every(cfg.Ingest.Interval),
		func(ctx context.Context) error {
			_, err := ingestion.RunCycle(ctx)
			return err
		},
		logger.Named("sched"),
	)
	remindRunner := sched.NewRunner(
		"reminder",
		sched.DailyAt(cfg.Remind.Hour, cfg.Remind.Minute, cfg.Location()),
		func(ctx context.Context) error {
			_, err := reminder.RunCycle(ctx)
			return err
		},
		logger.Named("sched"),
	)
	ingestRunner.Start(ctx)
	remindRunner.Start(ctx)

	apiServer := api.NewServer(
		ingestion,
		reminder,
		a.Store(),
		[]*sched.Runner{ingestRunner, remindRunner},
		logger.Named("api"),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	ingestRunner.Stop()
	remindRunner.Stop()
	logger.Info("shutdown complete")
	return nil
}
