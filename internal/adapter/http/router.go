package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/folio/internal/adapter/http/handler"
	"github.com/iho/folio/internal/adapter/http/middleware"
	"github.com/iho/folio/internal/infrastructure/metrics"
	"github.com/iho/folio/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	SnapshotHandler    *handler.SnapshotHandler
	TransactionHandler *handler.TransactionHandler
	PortfolioHandler   *handler.PortfolioHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	Metrics            *metrics.Metrics
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)

			// Ingest
			r.Post("/{id}/snapshots", cfg.SnapshotHandler.Record)
			r.Post("/{id}/sync", cfg.SnapshotHandler.Sync)
			r.Post("/{id}/transactions", cfg.TransactionHandler.Record)

			// Queries
			r.Get("/{id}/transactions", cfg.TransactionHandler.List)
			r.Get("/{id}/snapshots/{ticker}", cfg.SnapshotHandler.History)
			r.Get("/{id}/holdings", cfg.PortfolioHandler.Holdings)

			// Reconciliation
			r.Post("/{id}/reconcile", cfg.PortfolioHandler.Reconcile)
		})

		r.Get("/portfolio/summary", cfg.PortfolioHandler.Summary)
	})

	return r
}
