package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/postgres/generated"
	"github.com/iho/gotransact/internal/usecase"
)

// BalanceTransactionRepository implements usecase.BalanceTransactionRepository.
type BalanceTransactionRepository struct {
	queries *generated.Queries
}

// NewBalanceTransactionRepository creates a new BalanceTransactionRepository.
func NewBalanceTransactionRepository(pool *pgxpool.Pool) *BalanceTransactionRepository {
	return newBalanceTransactionRepository(pool)
}

func newBalanceTransactionRepository(db generated.DBTX) *BalanceTransactionRepository {
	return &BalanceTransactionRepository{queries: generated.New(db)}
}

// Create inserts a ledger entry and sets its ID.
func (r *BalanceTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceTransaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	id, err := queries.CreateBalanceTransaction(ctx, generated.CreateBalanceTransactionParams{
		TransactionID:   entry.TransactionID,
		ClientID:        entry.ClientID,
		AccountNumber:   entry.AccountNumber,
		Amount:          decimalToNumeric(entry.Amount),
		BalanceBefore:   decimalToNumeric(entry.BalanceBefore),
		BalanceAfter:    decimalToNumeric(entry.BalanceAfter),
		TransactionType: string(entry.Type),
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
	})
	if err != nil {
		if isDuplicateTransactionID(err) {
			return domain.ErrDuplicateTransactionID
		}

		return err
	}

	entry.ID = id

	return nil
}

// ListByAccount lists entries newest first.
func (r *BalanceTransactionRepository) ListByAccount(ctx context.Context, clientID int64, accountNumber string) ([]*domain.BalanceTransaction, error) {
	rows, err := r.queries.ListBalanceTransactionsByAccount(ctx, generated.ListBalanceTransactionsByAccountParams{
		ClientID:      clientID,
		AccountNumber: accountNumber,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.BalanceTransaction, len(rows))
	for i, row := range rows {
		entries[i] = rowToBalanceTransaction(row)
	}

	return entries, nil
}

// GetByTransactionID retrieves the entry recorded under a transaction id.
func (r *BalanceTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.BalanceTransaction, error) {
	row, err := r.queries.GetBalanceTransactionByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToBalanceTransaction(row), nil
}
