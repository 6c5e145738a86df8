package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBalance_ValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		amount      string
		expectError bool
	}{
		{name: "credit on empty account", balance: "0", amount: "100.50"},
		{name: "zero amount", balance: "0", amount: "0"},
		{name: "debit exact balance", balance: "100", amount: "-100"},
		{name: "debit less than balance", balance: "100", amount: "-40.25"},
		{name: "debit more than balance", balance: "1000.00", amount: "-1500.00", expectError: true},
		{name: "first debit on new account", balance: "0", amount: "-0.01", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Balance{AccountNumber: "ACC001", CurrentBalance: decimal.RequireFromString(tt.balance)}
			err := b.ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("expected ErrInsufficientFunds, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestBalance_InsufficientFundsMessage(t *testing.T) {
	b := &Balance{AccountNumber: "ACC001", CurrentBalance: decimal.RequireFromString("1000")}

	err := b.ValidateAmount(decimal.RequireFromString("-1500"))

	txErr := AsTransactionError(err)
	want := "Insufficient funds in account ACC001. Requested: 1500.00, Available: 1000.00"
	if txErr.Message != want {
		t.Fatalf("message = %q, want %q", txErr.Message, want)
	}
	if !txErr.Requested.Equal(decimal.NewFromInt(1500)) || !txErr.Available.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected requested/available: %s/%s", txErr.Requested, txErr.Available)
	}
}

func TestNewBalance_OpensAtZero(t *testing.T) {
	now := time.Now()
	b := NewBalance(7, "ACC001", now)

	if !b.CurrentBalance.IsZero() {
		t.Fatalf("expected zero opening balance, got %s", b.CurrentBalance)
	}
	if got := b.Apply(decimal.RequireFromString("100.50")); !got.Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("expected first credit applied once, got %s", got)
	}
}

func TestNewBalanceTransaction(t *testing.T) {
	entry := NewBalanceTransaction("txn_1", 1, "ACC001", decimal.RequireFromString("-200"), decimal.RequireFromString("1100.50"), time.Now())

	if entry.Type != TransactionTypeDebit {
		t.Fatalf("expected DEBIT, got %s", entry.Type)
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("900.50")) {
		t.Fatalf("expected 900.50 after, got %s", entry.BalanceAfter)
	}
	if !entry.IsConsistent() {
		t.Fatal("expected consistent entry")
	}

	if TypeOf(decimal.Zero) != TransactionTypeCredit {
		t.Fatal("zero amount should be recorded as CREDIT")
	}
}
