// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/campusboard/notice-ingest/internal/archive"
	"github.com/campusboard/notice-ingest/internal/config"
	"github.com/campusboard/notice-ingest/internal/logging"
	"github.com/campusboard/notice-ingest/internal/notice"
	"github.com/campusboard/notice-ingest/internal/notice/postgres"
	"github.com/campusboard/notice-ingest/internal/notify"
)

// App holds the shared, long-lived services: logger, store, snapshot
// archive, and push dispatcher. Initialized once at startup.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	store      notice.Store
	archiver   archive.Provider
	dispatcher notify.Dispatcher

	closers []func() error
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the notice persistence collaborator.
func (a *App) Store() notice.Store { return a.store }

// Archiver returns the snapshot archive provider.
func (a *App) Archiver() archive.Provider { return a.archiver }

// Dispatcher returns the push dispatcher.
func (a *App) Dispatcher() notify.Dispatcher { return a.dispatcher }

// New creates and initializes an App from Viper configuration. It is the
// central point for service initialization and fails fast when a critical
// service cannot be built.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	a := &App{cfg: cfg, logger: logger}

	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("connecting to postgres")
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Timezone: cfg.Ingest.Timezone,
			MaxConns: cfg.DB.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		a.store = store
	case "memory":
		logger.Info("using in-memory store; data is discarded on exit")
		a.store = notice.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown db provider: %s", cfg.DB.Provider)
	}

	switch cfg.Archive.Provider {
	case "gcs":
		logger.Info("using gcs snapshot archive", zap.String("bucket", cfg.Archive.GCS.Bucket))
		gcs, err := archive.NewGCSProvider(ctx, cfg.Archive.GCS.Bucket, logger.Named("archive"))
		if err != nil {
			return nil, fmt.Errorf("initialize gcs archive: %w", err)
		}
		a.archiver = gcs
		a.closers = append(a.closers, gcs.Close)
	case "noop":
		logger.Info("snapshot archiving disabled")
		a.archiver = &archive.NoOpProvider{}
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Archive.Provider)
	}

	switch cfg.Push.Provider {
	case "pubsub":
		logger.Info("using pubsub push dispatcher", zap.String("topic", cfg.Push.GCP.TopicID))
		ps, err := notify.NewPubSubDispatcher(
			ctx,
			cfg.Push.GCP.ProjectID,
			cfg.Push.GCP.TopicID,
			logger.Named("notify"),
		)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub dispatcher: %w", err)
		}
		a.dispatcher = ps
		a.closers = append(a.closers, ps.Close)
	case "noop":
		logger.Info("push dispatch disabled")
		a.dispatcher = &notify.NoOpDispatcher{Logger: logger.Named("notify")}
	default:
		return nil, fmt.Errorf("unknown push provider: %s", cfg.Push.Provider)
	}

	return a, nil
}

// Close shuts down every held service.
func (a *App) Close() {
	for _, close := range a.closers {
		if err := close(); err != nil {
			a.logger.Warn("service close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
