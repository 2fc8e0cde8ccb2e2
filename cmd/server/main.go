package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/iho/folio/internal/adapter/http"
	"github.com/iho/folio/internal/adapter/http/handler"
	"github.com/iho/folio/internal/adapter/marketdata"
	postgresRepo "github.com/iho/folio/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/folio/internal/adapter/repository/redis"
	"github.com/iho/folio/internal/infrastructure/config"
	"github.com/iho/folio/internal/infrastructure/logger"
	"github.com/iho/folio/internal/infrastructure/metrics"
	"github.com/iho/folio/internal/infrastructure/postgres"
	"github.com/iho/folio/internal/infrastructure/redis"
	"github.com/iho/folio/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLog

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLog.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLog.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier(appLog)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Market data: live client behind a shared cache.
	providerClient := marketdata.NewClient(cfg.PriceAPIURL, cfg.PriceTimeout, appLog)
	priceSource := marketdata.NewCachedSource(
		providerClient, providerClient, cache,
		cfg.PriceCacheTTL, cfg.FXCacheTTL, appLog,
	)

	costMethod, err := usecase.ParseCostBasisMethod(cfg.CostBasisMethod)
	if err != nil {
		appLog.Fatal().Err(err).Str("method", cfg.CostBasisMethod).Msg("invalid cost basis method")
	}

	tolerance, err := decimal.NewFromString(cfg.ReconcileTolerance)
	if err != nil {
		appLog.Fatal().Err(err).Str("tolerance", cfg.ReconcileTolerance).Msg("invalid reconcile tolerance")
	}

	// Use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)
	snapshotUC := usecase.NewSnapshotUseCase(txManager, accountRepo, snapshotRepo, transactionRepo, retrier, idGen, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, retrier, idGen, appMetrics)
	positionUC := usecase.NewPositionUseCase(
		accountRepo, snapshotRepo, transactionRepo,
		priceSource, usecase.NewConverter(priceSource),
		costMethod, cfg.PriceTimeout, appMetrics,
	)
	reconcileUC := usecase.NewReconcileUseCase(accountRepo, snapshotRepo, transactionRepo, tolerance, appMetrics)

	// HTTP layer
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		SnapshotHandler:    handler.NewSnapshotHandler(snapshotUC),
		TransactionHandler: handler.NewTransactionHandler(ledgerUC),
		PortfolioHandler:   handler.NewPortfolioHandler(positionUC, reconcileUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Metrics:            appMetrics,
		Logger:             appLog,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLog.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLog.Info().Msg("server stopped")
}
