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
	"github.com/redis/go-redis/v9"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/app"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/auth"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/companies"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/labor"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/liquidations"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/observability"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/platform/db"
	"github.com/idocstoreapp/cotizador-app-sub000/internal/quotations"
	"github.com/idocstoreapp/cotizador-app-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	companiesService := companies.NewService(companies.NewRepository(pool))
	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, companiesService, metrics, jobClient)

	laborCache := labor.NewCache(redisClient, cfg.SummaryCacheTTL)
	laborService := labor.NewService(labor.NewRepository(pool), quotationsRepo, laborCache, jobClient)

	liquidationsService := liquidations.NewService(liquidations.NewRepository(pool), metrics)

	authService := auth.NewService(auth.NewRepository(pool))
	sessions := auth.NewSessionStore(redisClient, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, sessions)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		CompaniesHandler:    companies.NewHandler(logger, companiesService),
		QuotationsHandler:   quotations.NewHandler(logger, quotationsService),
		LaborHandler:        labor.NewHandler(logger, laborService),
		LiquidationsHandler: liquidations.NewHandler(logger, liquidationsService),
		JobsHandler:         jobs.NewHandler(inspector, logger),
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
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
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
