package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gotransact/internal/adapter/http/middleware"
	"github.com/iho/gotransact/internal/infrastructure/eventpublisher"
	"github.com/iho/gotransact/internal/infrastructure/metrics"
	"github.com/iho/gotransact/internal/usecase"
	"github.com/iho/gotransact/internal/usecase/mocks"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_SubmitIsIdempotent(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	dispatcher := mocks.NewMockDispatcher()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
		cfg.TransactionHandler = newTransactionHandler(dispatcher)
	}))

	body := `{"clientIdentification":"12345678","accountNumber":"ACC-123456","amount":"100.50"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	if first.Code != http.StatusAccepted || second.Code != http.StatusAccepted {
		t.Fatalf("expected both responses to be 202, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected second response to be a replay")
	}
	if n := len(dispatcher.Events()); n != 1 {
		t.Fatalf("expected one processed transaction, got %d", n)
	}
}

func TestNewRouter_BalanceRoundTrip(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"clientIdentification":"12345678","accountNumber":"ACC-123456","amount":"40"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions/balance/12345678/ACC-123456", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var env struct {
		Data decimal.Decimal `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance 40, got %s", env.Data)
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegisterer(registry)
		cfg.Gatherer = registry
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`) {
		t.Fatalf("expected request counter in exposition, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/transactions/",
		"GET /api/transactions/health",
		"GET /api/transactions/balance/{clientIdentification}/{accountNumber}",
		"GET /api/transactions/history/{clientIdentification}/{accountNumber}",
		"GET /api/transactions/{transactionId}",
		"POST /api/admin/dead-letters/retry",
		"GET /api/admin/dead-letters/count",
		"GET /api/admin/reconciliation",
		"GET /api/admin/reconciliation/{clientIdentification}/{accountNumber}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newTransactionHandler(dispatcher *mocks.MockDispatcher) *handler.TransactionHandler {
	store := mocks.NewStore()
	uc := usecase.NewTransactionUseCase(
		mocks.NewMockTransactionManager(),
		mocks.NewMockClientRepository(store),
		mocks.NewMockBalanceRepository(store),
		mocks.NewMockBalanceTransactionRepository(store),
		mocks.NewMockIDGenerator(),
		dispatcher,
	)
	return handler.NewTransactionHandler(uc, zerolog.Nop())
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := mocks.NewStore()
	reconciliation := usecase.NewReconciliationUseCase(
		mocks.NewMockClientRepository(store),
		mocks.NewMockBalanceRepository(store),
		mocks.NewMockBalanceTransactionRepository(store),
	)

	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(),
		TransactionHandler: newTransactionHandler(mocks.NewMockDispatcher()),
		AdminHandler:       handler.NewAdminHandler(stubDeadLetterAdmin{}, reconciliation, zerolog.Nop()),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubDeadLetterAdmin struct{}

func (stubDeadLetterAdmin) RetryDeadLetterMessages(ctx context.Context) (eventpublisher.RetryReport, error) {
	return eventpublisher.RetryReport{Topic: eventpublisher.DefaultTopic}, nil
}

func (stubDeadLetterAdmin) DeadLetterQueueSize(ctx context.Context, topic string) (int64, error) {
	return 0, nil
}

