package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/postgres/generated"
	"github.com/iho/gotransact/internal/usecase"
)

// ClientRepository implements usecase.ClientRepository.
type ClientRepository struct {
	queries *generated.Queries
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return newClientRepository(pool)
}

func newClientRepository(db generated.DBTX) *ClientRepository {
	return &ClientRepository{queries: generated.New(db)}
}

// FindOrCreate looks the client up and inserts a placeholder when missing.
// A concurrent insert of the same identification makes ON CONFLICT skip ours;
// the re-read then sees the winner's row.
func (r *ClientRepository) FindOrCreate(ctx context.Context, tx usecase.Transaction, identification string) (*domain.Client, domain.Provisioning, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, domain.Found, err
	}

	row, err := queries.GetClientByIdentification(ctx, identification)
	if err == nil {
		return rowToClient(row), domain.Found, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Found, err
	}

	placeholder := domain.NewPlaceholderClient(identification, time.Now().UTC())
	row, err = queries.InsertClientIfAbsent(ctx, generated.InsertClientIfAbsentParams{
		Identification: placeholder.Identification,
		Name:           placeholder.Name,
		Lastname:       placeholder.Lastname,
		CreatedAt:      timeToPgTimestamptz(placeholder.CreatedAt),
	})
	if err == nil {
		return rowToClient(row), domain.Created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Found, fmt.Errorf("insert client: %w", err)
	}

	row, err = queries.GetClientByIdentification(ctx, identification)
	if err != nil {
		return nil, domain.Found, fmt.Errorf("re-read client after conflict: %w", err)
	}

	return rowToClient(row), domain.Found, nil
}

// GetByIdentification retrieves a client by identification.
func (r *ClientRepository) GetByIdentification(ctx context.Context, identification string) (*domain.Client, error) {
	return getClient(ctx, r.queries, identification)
}

// GetByIdentificationTx retrieves a client inside a transaction.
func (r *ClientRepository) GetByIdentificationTx(ctx context.Context, tx usecase.Transaction, identification string) (*domain.Client, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}
	return getClient(ctx, queries, identification)
}

func getClient(ctx context.Context, queries *generated.Queries, identification string) (*domain.Client, error) {
	row, err := queries.GetClientByIdentification(ctx, identification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}

		return nil, err
	}

	return rowToClient(row), nil
}
