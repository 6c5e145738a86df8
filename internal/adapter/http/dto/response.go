package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/usecase"
)

// Response codes that are not error classifications.
const (
	CodeSuccess       = "SUCCESS"
	CodeAccepted      = "ACCEPTED"
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
	CodeConflict      = "CONFLICT"
	CodeRateLimited   = "RATE_LIMITED"
)

// APIResponse wraps every response body.
type APIResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Success wraps data with the SUCCESS code.
func Success(data any, message string) *APIResponse {
	return &APIResponse{Data: data, Message: message, Code: CodeSuccess}
}

// Accepted wraps data with the ACCEPTED code.
func Accepted(data any, message string) *APIResponse {
	return &APIResponse{Data: data, Message: message, Code: CodeAccepted}
}

// Error builds a body without data.
func Error(message, code string) *APIResponse {
	return &APIResponse{Message: message, Code: code}
}

// TransactionResponse acknowledges a submitted transaction.
type TransactionResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// TransactionFromReceipt converts a use case receipt to response.
func TransactionFromReceipt(r *usecase.TransactionReceipt) *TransactionResponse {
	return &TransactionResponse{
		TransactionID: r.TransactionID,
		Status:        r.Status,
		Message:       r.Message,
	}
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	TransactionID   string          `json:"transactionId"`
	ClientID        int64           `json:"clientId"`
	AccountNumber   string          `json:"accountNumber"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	TransactionType string          `json:"transactionType"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// LedgerEntryFromDomain converts a domain ledger entry to response.
func LedgerEntryFromDomain(e *domain.BalanceTransaction) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		TransactionID:   e.TransactionID,
		ClientID:        e.ClientID,
		AccountNumber:   e.AccountNumber,
		Amount:          e.Amount,
		BalanceBefore:   e.BalanceBefore,
		BalanceAfter:    e.BalanceAfter,
		TransactionType: string(e.Type),
		CreatedAt:       e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain ledger entries to responses.
func LedgerEntriesFromDomain(entries []*domain.BalanceTransaction) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// DeadLetterCountResponse reports the dead-letter backlog.
type DeadLetterCountResponse struct {
	Topic string `json:"topic,omitempty"`
	Count int64  `json:"count"`
}

// ReconciliationResultResponse represents one reconciled account.
type ReconciliationResultResponse struct {
	ClientID          int64           `json:"clientId"`
	AccountNumber     string          `json:"accountNumber"`
	RecordedBalance   decimal.Decimal `json:"recordedBalance"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	Difference        decimal.Decimal `json:"difference"`
	Entries           int             `json:"entries"`
	ChainBreaks       []string        `json:"chainBreaks,omitempty"`
	IsReconciled      bool            `json:"isReconciled"`
	LastChecked       time.Time       `json:"lastChecked"`
}

// ReconciliationReportResponse summarizes a reconciliation run.
type ReconciliationReportResponse struct {
	TotalAccounts      int                             `json:"totalAccounts"`
	ReconciledAccounts int                             `json:"reconciledAccounts"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
	CheckedAt          time.Time                       `json:"checkedAt"`
}

// ReconciliationResultFromUseCase converts one account result to response.
func ReconciliationResultFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResultResponse {
	return &ReconciliationResultResponse{
		ClientID:          r.ClientID,
		AccountNumber:     r.AccountNumber,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Entries:           r.Entries,
		ChainBreaks:       r.ChainBreaks,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResultResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationResultFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}
