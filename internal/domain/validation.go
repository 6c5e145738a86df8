package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Transaction request limits
const (
	MinClientIdentificationLength = 1
	MaxClientIdentificationLength = 50
	MinAccountNumberLength        = 5
	MaxAccountNumberLength        = 25
	AmountScale                   = 2
)

var (
	MinAmount = decimal.RequireFromString("-10000.00")
	MaxAmount = decimal.RequireFromString("10000.00")
)

// ValidateClientIdentification checks the external client identification.
func ValidateClientIdentification(identification string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(identification))
	if n < MinClientIdentificationLength || n > MaxClientIdentificationLength {
		return NewValidationError("Client identification must be between %d and %d characters",
			MinClientIdentificationLength, MaxClientIdentificationLength)
	}
	return nil
}

// ValidateAccountNumber checks the account number length.
func ValidateAccountNumber(accountNumber string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(accountNumber))
	if n < MinAccountNumberLength || n > MaxAccountNumberLength {
		return NewValidationError("Account number must be between %d and %d characters",
			MinAccountNumberLength, MaxAccountNumberLength)
	}
	return nil
}

// ValidateAmount checks range and precision. Zero is allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(MinAmount) {
		return NewValidationError("Amount cannot be less than %s", MinAmount.StringFixed(AmountScale))
	}

	if amount.GreaterThan(MaxAmount) {
		return NewValidationError("Amount cannot be more than %s", MaxAmount.StringFixed(AmountScale))
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return NewValidationError("Amount must have at most %d decimal places", AmountScale)
	}

	return nil
}

// ValidateTransaction runs all field checks for a transaction request.
func ValidateTransaction(clientIdentification, accountNumber string, amount decimal.Decimal) error {
	if err := ValidateClientIdentification(clientIdentification); err != nil {
		return err
	}

	if err := ValidateAccountNumber(accountNumber); err != nil {
		return err
	}

	return ValidateAmount(amount)
}
