package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
)

// ClientRepository defines data access for clients.
type ClientRepository interface {
	// FindOrCreate returns the client with the identification, inserting a
	// placeholder row when none exists. Concurrent callers converge on one row.
	FindOrCreate(ctx context.Context, tx Transaction, identification string) (*domain.Client, domain.Provisioning, error)
	GetByIdentification(ctx context.Context, identification string) (*domain.Client, error)
	GetByIdentificationTx(ctx context.Context, tx Transaction, identification string) (*domain.Client, error)
}

// BalanceRepository defines data access for balances.
type BalanceRepository interface {
	// FindOrCreateForUpdate returns the (client, account) balance locked for the
	// rest of the transaction, opening it at zero when absent.
	FindOrCreateForUpdate(ctx context.Context, tx Transaction, clientID int64, accountNumber string) (*domain.Balance, domain.Provisioning, error)
	GetForUpdate(ctx context.Context, tx Transaction, clientID int64, accountNumber string) (*domain.Balance, error)
	Get(ctx context.Context, clientID int64, accountNumber string) (*domain.Balance, error)
	UpdateBalance(ctx context.Context, tx Transaction, id int64, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Balance, error)
}

// BalanceTransactionRepository defines data access for ledger entries.
type BalanceTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.BalanceTransaction) error
	// ListByAccount returns entries newest first.
	ListByAccount(ctx context.Context, clientID int64, accountNumber string) ([]*domain.BalanceTransaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.BalanceTransaction, error)
}

// DeadLetterRepository defines data access for undeliverable result events.
type DeadLetterRepository interface {
	Create(ctx context.Context, msg *domain.DeadLetterMessage) error
	ListByTopic(ctx context.Context, topic string) ([]*domain.DeadLetterMessage, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	CountByTopic(ctx context.Context, topic string) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a unit of work on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ResultDispatcher hands result events to the publisher without blocking.
type ResultDispatcher interface {
	Dispatch(event *domain.TransactionResultEvent)
}

// Cache defines caching operations. Every key has a generation that
// Invalidate advances; a fill is only stored while the generation it was
// read under is still current.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Generation returns the current generation of key, zero if never invalidated.
	Generation(ctx context.Context, key string) (int64, error)
	// SetIfGeneration stores value unless key was invalidated after generation
	// was read. It reports whether the value was stored.
	SetIfGeneration(ctx context.Context, key string, value []byte, generation int64, ttl time.Duration) (bool, error)
	// Invalidate drops the value and advances the generation.
	Invalidate(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
