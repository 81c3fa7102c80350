package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pearcestephens/stocklink-backend/api/routes"
	"github.com/pearcestephens/stocklink-backend/internal/audit"
	"github.com/pearcestephens/stocklink-backend/internal/consignment"
	"github.com/pearcestephens/stocklink-backend/internal/queue"
	"github.com/pearcestephens/stocklink-backend/internal/store"
	syncengine "github.com/pearcestephens/stocklink-backend/internal/sync"
	"github.com/pearcestephens/stocklink-backend/internal/webhook"
	"github.com/pearcestephens/stocklink-backend/pkg/config"
	"github.com/pearcestephens/stocklink-backend/pkg/db"
	"github.com/pearcestephens/stocklink-backend/pkg/logger"
	"github.com/pearcestephens/stocklink-backend/pkg/metrics"
	"github.com/pearcestephens/stocklink-backend/pkg/migrate"
	"github.com/pearcestephens/stocklink-backend/pkg/redis"
	"github.com/pearcestephens/stocklink-backend/pkg/vend"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	vendClient, err := vend.NewClient(context.Background(), cfg.Vend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap remote client", err)
		os.Exit(1)
	}

	shadowStore, err := store.New(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create shadow store", err)
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

	registry := prometheus.NewRegistry()

	queueService, err := queue.NewService(queue.ServiceParams{
		Repo:    queue.NewRepository(dbClient.DB()),
		Caller:  vendClient,
		Auditor: auditService,
		Logger:  logg,
		Metrics: metrics.NewQueueMetrics(registry),
		Config:  cfg.Queue,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue service", err)
		os.Exit(1)
	}

	engine, err := syncengine.NewEngine(syncengine.EngineParams{
		API:     vendClient,
		Store:   shadowStore,
		Auditor: auditService,
		Logger:  logg,
		Metrics: metrics.NewSyncMetrics(registry),
		Config:  cfg.Sync,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync engine", err)
		os.Exit(1)
	}

	consignmentService, err := consignment.NewService(consignment.ServiceParams{
		Store:   shadowStore,
		Auditor: auditService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create consignment service", err)
		os.Exit(1)
	}

	processor, err := webhook.NewProcessor(webhook.ProcessorParams{
		Queue:   queueService,
		Store:   shadowStore,
		Auditor: auditService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook processor", err)
		os.Exit(1)
	}

	guard, err := webhook.NewIdempotencyGuard(redisClient, cfg.Webhook.DedupeTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:          cfg,
			Logg:         logg,
			DB:           dbClient,
			Redis:        redisClient,
			Vend:         vendClient,
			Sync:         engine,
			Push:         engine,
			Queue:        queueService,
			Audit:        auditService,
			Consignments: consignmentService,
			Webhooks:     processor,
			WebhookGuard: guard,
			Gatherer:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
