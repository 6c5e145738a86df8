package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the account held by a client under an account number.
// The (ClientID, AccountNumber) pair is unique.
type Balance struct {
	ID             int64
	ClientID       int64
	AccountNumber  string
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewBalance opens an account at zero. The triggering transaction is applied
// afterwards like any other, so a first credit lands once and a first debit
// is checked against zero.
func NewBalance(clientID int64, accountNumber string, now time.Time) *Balance {
	return &Balance{
		ClientID:       clientID,
		AccountNumber:  accountNumber,
		CurrentBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ValidateAmount checks that a debit can be covered by the current balance.
// Credits and zero amounts always pass.
func (b *Balance) ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsNegative() {
		return nil
	}

	requested := amount.Abs()
	if b.CurrentBalance.LessThan(requested) {
		return NewInsufficientFundsError(b.AccountNumber, requested, b.CurrentBalance)
	}

	return nil
}

// Apply returns the balance after adding the signed amount.
func (b *Balance) Apply(amount decimal.Decimal) decimal.Decimal {
	return b.CurrentBalance.Add(amount)
}
