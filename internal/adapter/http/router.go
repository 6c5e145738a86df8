package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/http/handler"
	"github.com/iho/gotransact/internal/adapter/http/middleware"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
	"github.com/iho/gotransact/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	AdminHandler       *handler.AdminHandler
	HealthHandler      *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics when set
	Logger   zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/transactions", func(r chi.Router) {
		submit := http.Handler(http.HandlerFunc(cfg.TransactionHandler.Submit))
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			submit = idempotency.Wrap(submit)
		}

		r.Method(http.MethodPost, "/", submit)
		r.Get("/health", cfg.TransactionHandler.Health)
		r.Get("/balance/{clientIdentification}/{accountNumber}", cfg.TransactionHandler.GetBalance)
		r.Get("/history/{clientIdentification}/{accountNumber}", cfg.TransactionHandler.GetHistory)
		r.Get("/{transactionId}", cfg.TransactionHandler.GetTransaction)
	})

	if cfg.AdminHandler != nil {
		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/dead-letters/retry", cfg.AdminHandler.RetryDeadLetters)
			r.Get("/dead-letters/count", cfg.AdminHandler.DeadLetterCount)
			r.Get("/reconciliation", cfg.AdminHandler.Reconcile)
			r.Get("/reconciliation/{clientIdentification}/{accountNumber}", cfg.AdminHandler.ReconcileAccount)
		})
	}

	return r
}
