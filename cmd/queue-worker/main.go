package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/db"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/metrics"
	"github.com/pearcestephens/stocklink-backend/pkg/migrate"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "queue-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "queue-worker"

	logg = logger.New(logger.Options{
		ServiceName: "queue-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	vendClient, err := vend.NewClient(context.Background(), cfg.Vend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap remote client", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.ServiceParams{
		Repo:   audit.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	queueService, err := queue.NewService(queue.ServiceParams{
		Repo:    queue.NewRepository(dbClient.DB()),
		Caller:  vendClient,
		Auditor: auditService,
		Logger:  logg,
		Metrics: metrics.NewQueueMetrics(prometheus.DefaultRegisterer),
		Config:  cfg.Queue,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue service", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		Processor: queueService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting queue worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "queue worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "queue worker shutting down gracefully")
}
