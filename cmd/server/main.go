package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	httpAdapter "github.com/iho/splitsync/internal/adapter/http"
	"github.com/iho/splitsync/internal/adapter/http/handler"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/splitsync/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/splitsync/internal/adapter/repository/redis"
	"github.com/iho/splitsync/internal/adapter/upstream"
	"github.com/iho/splitsync/internal/infrastructure/auth"
	"github.com/iho/splitsync/internal/infrastructure/config"
	"github.com/iho/splitsync/internal/infrastructure/logger"
	"github.com/iho/splitsync/internal/infrastructure/logging"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
	"github.com/iho/splitsync/internal/infrastructure/notifier"
	"github.com/iho/splitsync/internal/infrastructure/postgres"
	"github.com/iho/splitsync/internal/infrastructure/redis"
	"github.com/iho/splitsync/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat))

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	configRepo := redisRepo.NewCachedConfigRepository(
		postgresRepo.NewConfigRepository(pool), redisClient, cfg.ConfigCacheTTL)
	cursorRepo := postgresRepo.NewCursorRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	duoRepo := postgresRepo.NewDuoRepository(pool)
	rateLimitRepo := postgresRepo.NewRateLimitRepository(pool)
	locker := redisRepo.NewPassLocker(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Upstream clients and outcome notifications
	clients := upstream.NewFactory(cfg.LedgerAPIBaseURL, cfg.SplitAPIBaseURL, configRepo, log)
	events := notifier.NewRedisNotifier(redisClient, "", log)

	// Use cases
	syncUC := usecase.NewSyncUseCase(
		txManager, configRepo, cursorRepo, historyRepo, clients, locker, events, idGen, m, log)
	batchUC := usecase.NewBatchUseCase(configRepo, syncUC, m, log)
	rateLimitUC := usecase.NewRateLimitUseCase(rateLimitRepo, usecase.RateLimitConfig{
		FreeHourlyMax:    cfg.FreeHourlyMax,
		FreeDailyMax:     cfg.FreeDailyMax,
		PremiumHourlyMax: cfg.PremiumHourlyMax,
	}, m, log)
	historyUC := usecase.NewHistoryUseCase(historyRepo)
	configUC := usecase.NewConfigUseCase(configRepo, log)
	duoUC := usecase.NewDuoUseCase(txManager, configRepo, duoRepo, idGen, cfg.InviteTTL, m, log)

	// HTTP layer
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	ipLimiter := middleware.NewIPRateLimiter(cfg.IPRateLimit, cfg.IPRateBurst)
	go func() {
		for range time.Tick(5 * time.Minute) {
			ipLimiter.Cleanup(10 * time.Minute)
		}
	}()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SyncHandler:     handler.NewSyncHandler(syncUC, batchUC, rateLimitUC, historyUC),
		ConfigHandler:   handler.NewConfigHandler(configUC, duoUC),
		DuoHandler:      handler.NewDuoHandler(duoUC),
		HealthHandler:   handler.NewHealthHandler(pool, redisClient),
		JWTManager:      jwtManager,
		SchedulerSecret: cfg.SchedulerSecret,
		IPRateLimiter:   ipLimiter,
		Logger:          log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
