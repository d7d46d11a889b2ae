package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ekahanny/souvenir-tracking-be/internal/app"
	"github.com/ekahanny/souvenir-tracking-be/internal/dashboard"
	"github.com/ekahanny/souvenir-tracking-be/internal/platform/cache"
	"github.com/ekahanny/souvenir-tracking-be/internal/platform/db"
	"github.com/ekahanny/souvenir-tracking-be/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sweeper := jobs.NewLotSweeper(pool, logger)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), redisClient, cfg.DashboardCacheTTL, logger)
	warmer := jobs.NewDashboardWarmer(dashboardService, logger)

	sweepTask, err := jobs.NewLotSweepTask(time.Now().UTC())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLotSweep, Handler: sweeper.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmer.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 1 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: jobs.NewDashboardWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// one sweep at boot so a fresh deployment does not carry expired,
	// drained lots until the nightly cron
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := client.EnqueueLotSweep(ctx); err != nil {
		logger.Warn("enqueue startup sweep", slog.Any("error", err))
	}
	if err := client.Close(); err != nil {
		logger.Warn("jobs client close", slog.Any("error", err))
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
