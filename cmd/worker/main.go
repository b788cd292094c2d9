package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aguatrestorres/backoffice/internal/app"
	"github.com/aguatrestorres/backoffice/internal/chat"
	"github.com/aguatrestorres/backoffice/internal/customers"
	"github.com/aguatrestorres/backoffice/internal/insights"
	"github.com/aguatrestorres/backoffice/internal/platform/cache"
	"github.com/aguatrestorres/backoffice/internal/platform/db"
	"github.com/aguatrestorres/backoffice/internal/routing"
	"github.com/aguatrestorres/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	customersRepo := customers.NewRepository(pool)
	chatRepo := chat.NewRepository(pool)

	mlClient := insights.NewMLClient(cfg.MLAPIURL)
	insightsCache := insights.NewCache(redisClient, cfg.InsightsCacheTTL)
	insightsService := insights.NewService(mlClient, insightsCache)

	geocoder := routing.NewGeocodeClient("", cfg.MapsAPIKey)

	warmupJob := jobs.NewInsightsWarmupJob(insightsService, customersRepo, logger, nil)
	cleanupJob := jobs.NewChatCleanupJob(chatRepo, cfg.ChatRetention, logger, nil)
	geocodeJob := jobs.NewGeocodeRefreshJob(geocoder, customersRepo, logger, nil)

	warmupTask, err := jobs.NewInsightsWarmupTask(jobs.InsightsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewChatCleanupTask()
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	geocodeTask, err := jobs.NewGeocodeRefreshTask(jobs.GeocodeRefreshPayload{})
	if err != nil {
		logger.Error("build geocode task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInsightsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskChatCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskGeocodeRefresh, Handler: geocodeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 6 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "*/30 * * * *", Task: geocodeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
