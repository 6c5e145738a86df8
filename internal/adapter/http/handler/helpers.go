package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/http/dto"
	"github.com/iho/gotransact/internal/domain"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, dto.Error(message, code))
}

// writeDomainError classifies err and writes the matching status. Causes of
// system failures are logged and never returned.
func writeDomainError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	code := domain.CodeOf(err)
	status := statusForCode(code)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(code)).Msg("request failed")
		writeError(w, status, genericErrorMessage, string(code))
		return
	}

	message := err.Error()
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		message = txErr.Message
	}

	writeError(w, status, message, string(code))
}

// statusForCode maps error codes to HTTP status codes.
func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeClientNotFound, domain.CodeAccountNotFound:
		return http.StatusNotFound
	case domain.CodeInsufficientFunds, domain.CodeAccountCreation:
		return http.StatusConflict
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeSystem, domain.CodeTransaction:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
