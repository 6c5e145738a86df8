package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gotransact/internal/infrastructure/eventpublisher"
	"github.com/iho/gotransact/internal/usecase"
	"github.com/iho/gotransact/internal/usecase/mocks"
)

type stubDeadLetterAdmin struct {
	report    eventpublisher.RetryReport
	retryErr  error
	counts    map[string]int64
	lastTopic string
}

func (s *stubDeadLetterAdmin) RetryDeadLetterMessages(ctx context.Context) (eventpublisher.RetryReport, error) {
	return s.report, s.retryErr
}

func (s *stubDeadLetterAdmin) DeadLetterQueueSize(ctx context.Context, topic string) (int64, error) {
	s.lastTopic = topic
	return s.counts[topic], nil
}

type adminFixture struct {
	store    *mocks.Store
	balances *mocks.MockBalanceRepository
	clients  *mocks.MockClientRepository
	txUC     *usecase.TransactionUseCase
	dlq      *stubDeadLetterAdmin
	router   chi.Router
}

func newAdminFixture() *adminFixture {
	store := mocks.NewStore()
	f := &adminFixture{
		store:    store,
		balances: mocks.NewMockBalanceRepository(store),
		clients:  mocks.NewMockClientRepository(store),
		dlq:      &stubDeadLetterAdmin{counts: map[string]int64{"": 3, eventpublisher.DefaultTopic: 2}},
	}
	entries := mocks.NewMockBalanceTransactionRepository(store)

	f.txUC = usecase.NewTransactionUseCase(
		mocks.NewMockTransactionManager(), f.clients, f.balances, entries,
		mocks.NewMockIDGenerator(), mocks.NewMockDispatcher(),
	)
	reconciliation := usecase.NewReconciliationUseCase(f.clients, f.balances, entries)

	h := NewAdminHandler(f.dlq, reconciliation, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/admin/dead-letters/retry", h.RetryDeadLetters)
	r.Get("/api/admin/dead-letters/count", h.DeadLetterCount)
	r.Get("/api/admin/reconciliation", h.Reconcile)
	r.Get("/api/admin/reconciliation/{clientIdentification}/{accountNumber}", h.ReconcileAccount)
	f.router = r

	return f
}

func (f *adminFixture) credit(t *testing.T, client, account string, amount int64) {
	t.Helper()
	_, err := f.txUC.ProcessTransaction(context.Background(), usecase.ProcessTransactionInput{
		ClientIdentification: client,
		AccountNumber:        account,
		Amount:               decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
}

func (f *adminFixture) get(t *testing.T, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRetryDeadLetters(t *testing.T) {
	f := newAdminFixture()
	f.dlq.report = eventpublisher.RetryReport{Topic: eventpublisher.DefaultTopic, Scanned: 3, Redelivered: 2, Skipped: 1}

	rec, env := f.get(t, http.MethodPost, "/api/admin/dead-letters/retry")
	require.Equal(t, http.StatusOK, rec.Code)

	var report eventpublisher.RetryReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, f.dlq.report, report)
}

func TestRetryDeadLetters_Failure(t *testing.T) {
	f := newAdminFixture()
	f.dlq.retryErr = errors.New("list dead letters: connection reset")

	rec, env := f.get(t, http.MethodPost, "/api/admin/dead-letters/retry")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "SYSTEM_ERROR", env.Code)
	assert.NotContains(t, env.Message, "connection reset")
}

func TestDeadLetterCount(t *testing.T) {
	f := newAdminFixture()

	_, env := f.get(t, http.MethodGet, "/api/admin/dead-letters/count")
	assert.JSONEq(t, `{"count":3}`, string(env.Data))
	assert.Equal(t, "", f.dlq.lastTopic)

	_, env = f.get(t, http.MethodGet, "/api/admin/dead-letters/count?topic="+eventpublisher.DefaultTopic)
	assert.JSONEq(t, `{"topic":"transaction-results","count":2}`, string(env.Data))
}

func TestReconcile(t *testing.T) {
	f := newAdminFixture()
	f.credit(t, "12345678", "ACC-123456", 100)
	f.credit(t, "87654321", "ACC-654321", 50)

	rec, env := f.get(t, http.MethodGet, "/api/admin/reconciliation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All accounts reconciled", env.Message)

	// Drift one balance away from its ledger.
	client, err := f.clients.GetByIdentification(context.Background(), "87654321")
	require.NoError(t, err)
	f.balances.SetBalance(client.ID, "ACC-654321", decimal.NewFromInt(75))

	rec, env = f.get(t, http.MethodGet, "/api/admin/reconciliation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Discrepancies found", env.Message)

	var report struct {
		TotalAccounts      int `json:"totalAccounts"`
		ReconciledAccounts int `json:"reconciledAccounts"`
		Discrepancies      []struct {
			AccountNumber string          `json:"accountNumber"`
			Difference    decimal.Decimal `json:"difference"`
		} `json:"discrepancies"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.TotalAccounts)
	assert.Equal(t, 1, report.ReconciledAccounts)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "ACC-654321", report.Discrepancies[0].AccountNumber)
	assert.True(t, report.Discrepancies[0].Difference.Abs().Equal(decimal.NewFromInt(25)))
}

func TestReconcileAccount(t *testing.T) {
	f := newAdminFixture()
	f.credit(t, "12345678", "ACC-123456", 100)

	rec, env := f.get(t, http.MethodGet, "/api/admin/reconciliation/12345678/ACC-123456")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		IsReconciled bool `json:"isReconciled"`
		Entries      int  `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.IsReconciled)
	assert.Equal(t, 1, result.Entries)

	rec, env = f.get(t, http.MethodGet, "/api/admin/reconciliation/12345678/ACC-000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	rec, _ = f.get(t, http.MethodGet, "/api/admin/reconciliation/nobody/ACC-123456")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
