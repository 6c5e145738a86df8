package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/http/dto"
	"github.com/iho/gotransact/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	DefaultIdempotencyTTL = usecase.IdempotencyKeyTTL
)

// storedResponse is what a completed request leaves under its key.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key instead of processing the request again.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			writeEnvelope(w, http.StatusInternalServerError, "Idempotency check failed", dto.CodeInternalError)
			return
		}

		if exists {
			m.replay(w, key, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// The key outlives a cancelled request.
		ctx := context.WithoutCancel(r.Context())

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			// Failed attempts may be retried under the same key.
			if err := m.store.Release(ctx, key); err != nil {
				m.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
			return
		}

		raw, _ := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err := m.store.Update(ctx, key, raw, m.ttl); err != nil {
			m.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, key string, cached []byte) {
	if cached == nil || string(cached) == usecase.IdempotencyProcessing {
		writeEnvelope(w, http.StatusConflict, "A request with this idempotency key is already being processed", dto.CodeConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
		m.logger.Warn().Err(err).Str("idempotency_key", key).Msg("unreadable idempotent response")
		writeEnvelope(w, http.StatusConflict, "A request with this idempotency key was already processed", dto.CodeConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeEnvelope(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Error(message, code))
}
