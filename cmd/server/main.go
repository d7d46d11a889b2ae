package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ekahanny/souvenir-tracking-be/internal/activities"
	"github.com/ekahanny/souvenir-tracking-be/internal/app"
	"github.com/ekahanny/souvenir-tracking-be/internal/auth"
	"github.com/ekahanny/souvenir-tracking-be/internal/categories"
	"github.com/ekahanny/souvenir-tracking-be/internal/dashboard"
	"github.com/ekahanny/souvenir-tracking-be/internal/platform/cache"
	"github.com/ekahanny/souvenir-tracking-be/internal/platform/db"
	"github.com/ekahanny/souvenir-tracking-be/internal/products"
	"github.com/ekahanny/souvenir-tracking-be/internal/stock"
	"github.com/ekahanny/souvenir-tracking-be/internal/users"
	"github.com/ekahanny/souvenir-tracking-be/jobs"
)

// warmupNotifier queues a dashboard rebuild after each stock movement so
// the cached summary never lags a committed mutation by more than one job.
type warmupNotifier struct {
	client *jobs.Client
	logger *slog.Logger
}

func (n *warmupNotifier) StockChanged(ctx context.Context) {
	if _, err := n.client.EnqueueDashboardWarmup(ctx); err != nil {
		n.logger.Warn("enqueue dashboard warmup", slog.Any("error", err))
	}
}

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
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, cfg.JWTTTL)
	usersService := users.NewService(users.NewRepository(pool))
	categoriesService := categories.NewService(categories.NewRepository(pool))
	productsService := products.NewService(products.NewRepository(pool))
	activitiesService := activities.NewService(activities.NewRepository(pool))
	stockService := stock.NewService(stock.NewRepository(pool), logger)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), redisClient, cfg.DashboardCacheTTL, logger)

	if redisClient != nil {
		jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("jobs client unavailable", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobsClient.Close(); err != nil {
					logger.Warn("jobs client close", slog.Any("error", err))
				}
			}()
			stockService.UseNotifier(&warmupNotifier{client: jobsClient, logger: logger})
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthService:       authService,
		AuthHandler:       auth.NewHandler(logger, authService),
		UsersHandler:      users.NewHandler(logger, usersService),
		CategoriesHandler: categories.NewHandler(logger, categoriesService),
		ProductsHandler:   products.NewHandler(logger, productsService),
		ActivitiesHandler: activities.NewHandler(logger, activitiesService),
		StockHandler:      stock.NewHandler(logger, stockService),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
