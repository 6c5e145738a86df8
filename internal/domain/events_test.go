package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCompletedEvent_JSONShape(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	event := CompletedEvent("txn_abc", 42, "ACC001", decimal.RequireFromString("100.5"), decimal.RequireFromString("1100.50"), at)

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"transactionId":"txn_abc","clientId":42,"accountNumber":"ACC001","amount":100.50,` +
		`"finalStatus":"COMPLETED","errorMessage":null,"completedAt":"2024-01-02T03:04:05Z","newBalance":1100.50}`
	if string(raw) != want {
		t.Fatalf("payload mismatch\n got: %s\nwant: %s", raw, want)
	}
	if !event.IsSuccess() {
		t.Fatal("expected success")
	}

	var decoded TransactionResultEvent
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(event, &decoded) {
		t.Fatalf("round trip changed the event: %+v != %+v", event, decoded)
	}
}

func TestFailedEvent_JSONShape(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	event := FailedEvent("txn_def", nil, "ACC001", decimal.NewFromInt(-1500),
		NewInsufficientFundsError("ACC001", decimal.NewFromInt(1500), decimal.NewFromInt(1000)), at)

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"transactionId":"txn_def","clientId":null,"accountNumber":"ACC001","amount":-1500.00,` +
		`"finalStatus":"FAILED_INSUFFICIENT_FUNDS","errorMessage":"Insufficient funds for this transaction",` +
		`"completedAt":"2024-01-02T03:04:05Z","newBalance":null}`
	if string(raw) != want {
		t.Fatalf("payload mismatch\n got: %s\nwant: %s", raw, want)
	}

	var decoded TransactionResultEvent
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(event, &decoded) {
		t.Fatalf("round trip changed the event: %+v != %+v", event, decoded)
	}
}

func TestMoney_AcceptsQuotedAndBareNumbers(t *testing.T) {
	for _, input := range []string{`"100.5"`, `100.5`, `100.50`, `"100.500"`} {
		var m Money
		if err := json.Unmarshal([]byte(input), &m); err != nil {
			t.Fatalf("%s: %v", input, err)
		}
		raw, _ := json.Marshal(m)
		if string(raw) != "100.50" {
			t.Fatalf("%s encoded as %s", input, raw)
		}
	}
}

func TestFailedEvent_StatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  FinalStatus
		wantMessage string
	}{
		{
			name:        "insufficient funds",
			err:         NewInsufficientFundsError("ACC001", decimal.NewFromInt(1500), decimal.NewFromInt(1000)),
			wantStatus:  StatusFailedInsufficientFunds,
			wantMessage: "Insufficient funds for this transaction",
		},
		{
			name:        "client not found",
			err:         NewClientNotFoundError("123"),
			wantStatus:  StatusFailedClientNotFound,
			wantMessage: "Client not found",
		},
		{
			name:        "validation",
			err:         NewValidationError("Amount cannot be more than 10000.00"),
			wantStatus:  StatusFailedValidationError,
			wantMessage: "Amount cannot be more than 10000.00",
		},
		{
			name:        "account creation falls back to system",
			err:         NewAccountCreationError("ACC001", nil),
			wantStatus:  StatusFailedSystemError,
			wantMessage: "Could not create account ACC001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := FailedEvent("txn_1", nil, "ACC001", decimal.NewFromInt(-1500), tt.err, time.Now())
			if event.FinalStatus != tt.wantStatus {
				t.Fatalf("status = %s, want %s", event.FinalStatus, tt.wantStatus)
			}
			if event.ErrorMessage == nil || *event.ErrorMessage != tt.wantMessage {
				t.Fatalf("message = %v, want %q", event.ErrorMessage, tt.wantMessage)
			}
			if event.NewBalance != nil || event.ClientID != nil {
				t.Fatal("failed event must not carry balance or client id")
			}
		})
	}
}
