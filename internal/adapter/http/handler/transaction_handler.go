package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/adapter/http/dto"
	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/usecase"
)

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC *usecase.TransactionUseCase
	logger        zerolog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC *usecase.TransactionUseCase, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC, logger: logger}
}

// Submit processes a credit or debit and acknowledges it with 202.
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format or missing required fields", dto.CodeBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	receipt, err := h.transactionUC.ProcessTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.Accepted(
		dto.TransactionFromReceipt(receipt),
		"Transaction has been accepted and is being processed",
	))
}

// Health reports that the transaction service is up.
func (h *TransactionHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.Success("Transaction service is healthy", "Operation completed successfully"))
}

// GetBalance returns the current balance of a client's account.
func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	clientIdentification := chi.URLParam(r, "clientIdentification")
	accountNumber := chi.URLParam(r, "accountNumber")

	balance, err := h.transactionUC.GetBalance(r.Context(), clientIdentification, accountNumber)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("Account not found for client %s and account %s", clientIdentification, accountNumber),
			dto.CodeNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(balance.CurrentBalance, "Balance retrieved successfully"))
}

// GetHistory lists the ledger entries of an account, newest first.
func (h *TransactionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	clientIdentification := chi.URLParam(r, "clientIdentification")
	accountNumber := chi.URLParam(r, "accountNumber")

	entries, err := h.transactionUC.GetTransactionHistoryByIdentification(r.Context(), clientIdentification, accountNumber)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(dto.LedgerEntriesFromDomain(entries), "Transaction history retrieved successfully"))
}

// GetTransaction returns the ledger entry recorded under a transaction id.
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	entry, err := h.transactionUC.GetTransaction(r.Context(), transactionID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		writeError(w, http.StatusNotFound, "Transaction not found: "+transactionID, dto.CodeNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Success(dto.LedgerEntryFromDomain(entry), "Transaction retrieved successfully"))
}
