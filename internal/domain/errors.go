package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorCode is the machine-readable classification of a failed transaction.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeClientNotFound    ErrorCode = "CLIENT_NOT_FOUND"
	CodeAccountNotFound   ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeAccountCreation   ErrorCode = "ACCOUNT_CREATION_ERROR"
	CodeSystem            ErrorCode = "SYSTEM_ERROR"
	CodeTransaction       ErrorCode = "TRANSACTION_ERROR"
)

var (
	// Business errors
	ErrValidation        = errors.New("validation error")
	ErrClientNotFound    = errors.New("client not found")
	ErrBalanceNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountCreation   = errors.New("account creation failed")

	// System errors
	ErrSystem                 = errors.New("system error processing transaction")
	ErrTransaction            = errors.New("transaction error")
	ErrDuplicateTransactionID = errors.New("transaction id already used")
	ErrTransactionNotFound    = errors.New("transaction not found")
)

var sentinelByCode = map[ErrorCode]error{
	CodeValidation:        ErrValidation,
	CodeClientNotFound:    ErrClientNotFound,
	CodeAccountNotFound:   ErrBalanceNotFound,
	CodeInsufficientFunds: ErrInsufficientFunds,
	CodeAccountCreation:   ErrAccountCreation,
	CodeSystem:            ErrSystem,
	CodeTransaction:       ErrTransaction,
}

// TransactionError is a classified failure of the transaction processor.
type TransactionError struct {
	Code    ErrorCode
	Message string

	// Set for INSUFFICIENT_FUNDS only.
	Requested decimal.Decimal
	Available decimal.Decimal

	cause error
}

func (e *TransactionError) Error() string {
	return e.Message
}

func (e *TransactionError) Unwrap() error {
	return e.cause
}

// Is matches the sentinel error of the same code.
func (e *TransactionError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && sentinel == target
}

// NewValidationError rejects malformed or out-of-range input.
func NewValidationError(format string, args ...any) *TransactionError {
	return &TransactionError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewClientNotFoundError is raised when auto-provisioning is disabled.
func NewClientNotFoundError(identification string) *TransactionError {
	return &TransactionError{
		Code:    CodeClientNotFound,
		Message: fmt.Sprintf("Client with identification %s not found", identification),
	}
}

// NewInsufficientFundsError reports a debit larger than the available balance.
func NewInsufficientFundsError(accountNumber string, requested, available decimal.Decimal) *TransactionError {
	return &TransactionError{
		Code: CodeInsufficientFunds,
		Message: fmt.Sprintf("Insufficient funds in account %s. Requested: %s, Available: %s",
			accountNumber, requested.StringFixed(2), available.StringFixed(2)),
		Requested: requested,
		Available: available,
	}
}

// NewAccountCreationError wraps a store rejection while opening an account.
func NewAccountCreationError(accountNumber string, cause error) *TransactionError {
	return &TransactionError{
		Code:    CodeAccountCreation,
		Message: fmt.Sprintf("Could not create account %s", accountNumber),
		cause:   cause,
	}
}

// NewSystemError wraps an unexpected failure. The cause stays available to
// errors.Unwrap for logging but is not part of the message.
func NewSystemError(cause error) *TransactionError {
	return &TransactionError{
		Code:    CodeSystem,
		Message: "System error processing transaction",
		cause:   cause,
	}
}

// CodeOf classifies any error. Unclassified errors are SYSTEM_ERROR.
func CodeOf(err error) ErrorCode {
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr.Code
	}

	for code, sentinel := range sentinelByCode {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeSystem
}

// AsTransactionError keeps classified errors as they are and wraps everything
// else as SYSTEM_ERROR.
func AsTransactionError(err error) *TransactionError {
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr
	}
	return NewSystemError(err)
}
