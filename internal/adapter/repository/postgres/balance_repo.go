package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/postgres/generated"
	"github.com/iho/gotransact/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return newBalanceRepository(pool)
}

func newBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{queries: generated.New(db)}
}

// FindOrCreateForUpdate locks the balance row, opening it at zero when it
// does not exist yet. The inserted row is locked by the inserting transaction
// and a losing racer blocks on ON CONFLICT until the winner commits, then
// locks the winner's row.
func (r *BalanceRepository) FindOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, clientID int64, accountNumber string) (*domain.Balance, domain.Provisioning, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, domain.Found, err
	}

	lookup := generated.GetBalanceForUpdateParams{ClientID: clientID, AccountNumber: accountNumber}

	row, err := queries.GetBalanceForUpdate(ctx, lookup)
	if err == nil {
		return rowToBalance(row), domain.Found, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Found, err
	}

	opening := domain.NewBalance(clientID, accountNumber, time.Now().UTC())
	row, err = queries.InsertBalanceIfAbsent(ctx, generated.InsertBalanceIfAbsentParams{
		ClientID:       opening.ClientID,
		AccountNumber:  opening.AccountNumber,
		CurrentBalance: decimalToNumeric(opening.CurrentBalance),
		CreatedAt:      timeToPgTimestamptz(opening.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(opening.UpdatedAt),
	})
	if err == nil {
		return rowToBalance(row), domain.Created, nil
	}
	if isConstraintViolation(err) {
		return nil, domain.Found, domain.NewAccountCreationError(accountNumber, err)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Found, err
	}

	row, err = queries.GetBalanceForUpdate(ctx, lookup)
	if err != nil {
		return nil, domain.Found, domain.NewAccountCreationError(accountNumber, err)
	}

	return rowToBalance(row), domain.Found, nil
}

// GetForUpdate retrieves a balance with a FOR UPDATE lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, clientID int64, accountNumber string) (*domain.Balance, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetBalanceForUpdate(ctx, generated.GetBalanceForUpdateParams{
		ClientID:      clientID,
		AccountNumber: accountNumber,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}

		return nil, err
	}

	return rowToBalance(row), nil
}

// Get retrieves a balance without locking.
func (r *BalanceRepository) Get(ctx context.Context, clientID int64, accountNumber string) (*domain.Balance, error) {
	row, err := r.queries.GetBalance(ctx, generated.GetBalanceParams{
		ClientID:      clientID,
		AccountNumber: accountNumber,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}

		return nil, err
	}

	return rowToBalance(row), nil
}

// UpdateBalance sets the balance of a row locked by tx.
func (r *BalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id int64, balance decimal.Decimal, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateBalance(ctx, generated.UpdateBalanceParams{
		ID:             id,
		CurrentBalance: decimalToNumeric(balance),
		UpdatedAt:      timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// List lists balances ordered by id.
func (r *BalanceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Balance, error) {
	rows, err := r.queries.ListBalances(ctx, generated.ListBalancesParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.Balance, len(rows))
	for i, row := range rows {
		balances[i] = rowToBalance(row)
	}

	return balances, nil
}
