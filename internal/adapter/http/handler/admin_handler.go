package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/http/dto"
	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/eventpublisher"
	"github.com/iho/gotransact/internal/usecase"
)

// DeadLetterAdmin is the dead-letter surface of the event publisher.
type DeadLetterAdmin interface {
	RetryDeadLetterMessages(ctx context.Context) (eventpublisher.RetryReport, error)
	DeadLetterQueueSize(ctx context.Context, topic string) (int64, error)
}

// AdminHandler handles operational requests.
type AdminHandler struct {
	deadLetters      DeadLetterAdmin
	reconciliationUC *usecase.ReconciliationUseCase
	logger           zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(deadLetters DeadLetterAdmin, reconciliationUC *usecase.ReconciliationUseCase, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		deadLetters:      deadLetters,
		reconciliationUC: reconciliationUC,
		logger:           logger,
	}
}

// RetryDeadLetters redelivers pending dead-letter messages.
func (h *AdminHandler) RetryDeadLetters(w http.ResponseWriter, r *http.Request) {
	report, err := h.deadLetters.RetryDeadLetterMessages(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(report, "Dead-letter retry completed"))
}

// DeadLetterCount reports the backlog, optionally for one topic.
func (h *AdminHandler) DeadLetterCount(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")

	count, err := h.deadLetters.DeadLetterQueueSize(r.Context(), topic)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(dto.DeadLetterCountResponse{Topic: topic, Count: count}, "Dead-letter queue size"))
}

// Reconcile checks every account against its ledger.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckAll(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	message := "All accounts reconciled"
	if len(report.Discrepancies) > 0 {
		message = "Discrepancies found"
	}

	writeJSON(w, http.StatusOK, dto.Success(dto.ReconciliationReportFromUseCase(report), message))
}

// ReconcileAccount checks one account against its ledger.
func (h *AdminHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	clientIdentification := chi.URLParam(r, "clientIdentification")
	accountNumber := chi.URLParam(r, "accountNumber")

	result, err := h.reconciliationUC.CheckAccount(r.Context(), clientIdentification, accountNumber)
	if errors.Is(err, domain.ErrClientNotFound) || errors.Is(err, domain.ErrBalanceNotFound) {
		writeError(w, http.StatusNotFound, "Account not found", dto.CodeNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(dto.ReconciliationResultFromUseCase(result), "Account reconciled"))
}
