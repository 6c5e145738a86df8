package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is derived from the sign of the amount.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TypeOf returns CREDIT for amounts >= 0 and DEBIT otherwise.
func TypeOf(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// BalanceTransaction is an immutable ledger entry. BalanceAfter always equals
// BalanceBefore + Amount.
type BalanceTransaction struct {
	ID            int64
	TransactionID string
	ClientID      int64
	AccountNumber string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Type          TransactionType
	CreatedAt     time.Time
}

// NewBalanceTransaction records the move from before to before+amount.
func NewBalanceTransaction(transactionID string, clientID int64, accountNumber string, amount, before decimal.Decimal, now time.Time) *BalanceTransaction {
	return &BalanceTransaction{
		TransactionID: transactionID,
		ClientID:      clientID,
		AccountNumber: accountNumber,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before.Add(amount),
		Type:          TypeOf(amount),
		CreatedAt:     now,
	}
}

// IsConsistent reports whether the stored before/after pair matches the amount.
func (t *BalanceTransaction) IsConsistent() bool {
	return t.BalanceBefore.Add(t.Amount).Equal(t.BalanceAfter)
}
