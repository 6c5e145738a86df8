package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/gotransact/internal/domain"
)

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	r.maxRetries = 2
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = 10 * time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	retryableErr := &pgconn.PgError{Code: pgErrDeadlock}
	if !isRetryableError(retryableErr) {
		t.Fatalf("expected deadlock error to be retryable")
	}

	if !isRetryableError(&pgconn.PgError{Code: pgErrSerializationFailure}) {
		t.Fatalf("expected serialization failure to be retryable")
	}

	if !isRetryableError(fmt.Errorf("create entry: %w", domain.ErrDuplicateTransactionID)) {
		t.Fatalf("expected transaction id collision to be retryable")
	}

	if isRetryableError(&pgconn.PgError{Code: pgErrCheckViolation}) {
		t.Fatalf("expected check violation to be non-retryable")
	}

	nonRetryable := errors.New("other")
	if isRetryableError(nonRetryable) {
		t.Fatalf("expected generic error to be non-retryable")
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	r.maxRetries = 2
	r.initialInterval = time.Millisecond
	r.maxInterval = time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrDuplicateTransactionID
	})

	if !errors.Is(err, domain.ErrDuplicateTransactionID) {
		t.Fatalf("expected collision error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestConstraintClassification(t *testing.T) {
	dup := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: transactionIDConstraint}
	if !isDuplicateTransactionID(dup) {
		t.Fatalf("expected transaction id collision")
	}

	other := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "balances_client_account_key"}
	if isDuplicateTransactionID(other) {
		t.Fatalf("unexpected collision match on %s", other.ConstraintName)
	}
	if !isConstraintViolation(other) {
		t.Fatalf("expected constraint violation")
	}

	if isConstraintViolation(&pgconn.PgError{Code: pgErrDeadlock}) {
		t.Fatalf("deadlock is not a constraint violation")
	}
}
