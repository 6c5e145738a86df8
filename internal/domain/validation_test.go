package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateClientIdentification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "single character", input: "1"},
		{name: "max length", input: strings.Repeat("9", MaxClientIdentificationLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("9", MaxClientIdentificationLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClientIdentification(tt.input)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateAccountNumber(t *testing.T) {
	t.Parallel()

	if err := ValidateAccountNumber("ACC001"); err != nil {
		t.Fatalf("expected valid account number, got %v", err)
	}

	if err := ValidateAccountNumber("ACC1"); CodeOf(err) != CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for short account, got %v", err)
	}

	if err := ValidateAccountNumber(strings.Repeat("A", MaxAccountNumberLength+1)); CodeOf(err) != CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for long account, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount  string
		wantErr bool
	}{
		{amount: "0"},
		{amount: "100.50"},
		{amount: "-100.5"},
		{amount: "10000.00"},
		{amount: "-10000.00"},
		{amount: "10000.01", wantErr: true},
		{amount: "-10000.01", wantErr: true},
		{amount: "1.005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr && CodeOf(err) != CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateTransaction_FirstFailureWins(t *testing.T) {
	t.Parallel()

	err := ValidateTransaction("", "ACC1", decimal.RequireFromString("99999"))
	if err == nil || !strings.Contains(err.Error(), "Client identification") {
		t.Fatalf("expected client identification error first, got %v", err)
	}
}
