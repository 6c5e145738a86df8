package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

const transactionIDConstraint = "balance_transactions_transaction_id_key"

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isConstraintViolation reports unique, foreign key and check violations.
func isConstraintViolation(err error) bool {
	pgErr, ok := pgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation, pgErrForeignKeyViolation, pgErrCheckViolation:
		return true
	}
	return false
}

func isDuplicateTransactionID(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == transactionIDConstraint
}
