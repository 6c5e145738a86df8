package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinalStatus is the terminal outcome reported in a result event.
type FinalStatus string

const (
	StatusCompleted               FinalStatus = "COMPLETED"
	StatusFailedInsufficientFunds FinalStatus = "FAILED_INSUFFICIENT_FUNDS"
	StatusFailedClientNotFound    FinalStatus = "FAILED_CLIENT_NOT_FOUND"
	StatusFailedValidationError   FinalStatus = "FAILED_VALIDATION_ERROR"
	StatusFailedSystemError       FinalStatus = "FAILED_SYSTEM_ERROR"
)

const (
	insufficientFundsEventMessage = "Insufficient funds for this transaction"
	clientNotFoundEventMessage    = "Client not found"
)

// TransactionResultEvent is published downstream once a transaction reaches a
// terminal state. It is keyed by TransactionID.
type TransactionResultEvent struct {
	TransactionID string      `json:"transactionId"`
	ClientID      *int64      `json:"clientId"`
	AccountNumber string      `json:"accountNumber"`
	Amount        Money       `json:"amount"`
	FinalStatus   FinalStatus `json:"finalStatus"`
	ErrorMessage  *string     `json:"errorMessage"`
	CompletedAt   time.Time   `json:"completedAt"`
	NewBalance    *Money      `json:"newBalance"`
}

// IsSuccess reports a COMPLETED event.
func (e *TransactionResultEvent) IsSuccess() bool {
	return e.FinalStatus == StatusCompleted
}

// CompletedEvent describes a committed transaction.
func CompletedEvent(transactionID string, clientID int64, accountNumber string, amount, newBalance decimal.Decimal, at time.Time) *TransactionResultEvent {
	balance := NewMoney(newBalance)
	return &TransactionResultEvent{
		TransactionID: transactionID,
		ClientID:      &clientID,
		AccountNumber: accountNumber,
		Amount:        NewMoney(amount),
		FinalStatus:   StatusCompleted,
		CompletedAt:   at.UTC(),
		NewBalance:    &balance,
	}
}

// FailedEvent describes a transaction that was rolled back. The status is
// derived from the error classification.
func FailedEvent(transactionID string, clientID *int64, accountNumber string, amount decimal.Decimal, err error, at time.Time) *TransactionResultEvent {
	event := &TransactionResultEvent{
		TransactionID: transactionID,
		ClientID:      clientID,
		AccountNumber: accountNumber,
		Amount:        NewMoney(amount),
		CompletedAt:   at.UTC(),
	}

	var message string
	switch CodeOf(err) {
	case CodeClientNotFound:
		event.FinalStatus = StatusFailedClientNotFound
		message = clientNotFoundEventMessage
	case CodeInsufficientFunds:
		event.FinalStatus = StatusFailedInsufficientFunds
		message = insufficientFundsEventMessage
	case CodeValidation:
		event.FinalStatus = StatusFailedValidationError
		message = err.Error()
	default:
		event.FinalStatus = StatusFailedSystemError
		message = AsTransactionError(err).Message
	}
	event.ErrorMessage = &message

	return event
}
