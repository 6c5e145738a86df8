package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
)

// TransactionUseCase applies credits and debits to client balances.
type TransactionUseCase struct {
	txManager   TransactionManager
	clientRepo  ClientRepository
	balanceRepo BalanceRepository
	entryRepo   BalanceTransactionRepository
	idGen       IDGenerator
	retrier     Retrier
	dispatcher  ResultDispatcher
	cache       Cache
	cacheTTL    time.Duration
	txTimeout   time.Duration
	autoCreate  bool
	logger      zerolog.Logger
	now         func() time.Time
}

// TransactionOption customizes a TransactionUseCase.
type TransactionOption func(*TransactionUseCase)

// WithRetrier re-runs the unit of work on transient store failures.
func WithRetrier(r Retrier) TransactionOption {
	return func(uc *TransactionUseCase) { uc.retrier = r }
}

// WithBalanceCache caches balance reads. A zero ttl disables caching.
func WithBalanceCache(cache Cache, ttl time.Duration) TransactionOption {
	return func(uc *TransactionUseCase) {
		if ttl > 0 {
			uc.cache = cache
			uc.cacheTTL = ttl
		}
	}
}

// WithTransactionTimeout bounds the unit of work. Zero leaves it to the
// caller's context and the store.
func WithTransactionTimeout(d time.Duration) TransactionOption {
	return func(uc *TransactionUseCase) { uc.txTimeout = d }
}

// WithAutoProvisioning controls whether unknown clients are created on first use.
func WithAutoProvisioning(enabled bool) TransactionOption {
	return func(uc *TransactionUseCase) { uc.autoCreate = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TransactionOption {
	return func(uc *TransactionUseCase) { uc.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TransactionOption {
	return func(uc *TransactionUseCase) { uc.now = now }
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	clientRepo ClientRepository,
	balanceRepo BalanceRepository,
	entryRepo BalanceTransactionRepository,
	idGen IDGenerator,
	dispatcher ResultDispatcher,
	opts ...TransactionOption,
) *TransactionUseCase {
	uc := &TransactionUseCase{
		txManager:   txManager,
		clientRepo:  clientRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		dispatcher:  dispatcher,
		retrier:     onceRetrier{},
		autoCreate:  true,
		logger:      zerolog.Nop(),
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ProcessTransactionInput represents a credit (amount >= 0) or debit (amount < 0).
type ProcessTransactionInput struct {
	ClientIdentification string
	AccountNumber        string
	Amount               decimal.Decimal
}

// TransactionReceipt acknowledges a committed transaction.
type TransactionReceipt struct {
	TransactionID string
	Status        string
	Message       string
	ClientID      int64
	NewBalance    decimal.Decimal
}

type appliedTransaction struct {
	clientID   int64
	newBalance decimal.Decimal
	entry      *domain.BalanceTransaction
}

// ProcessTransaction validates the request and applies it in one unit of
// work. The outcome is reported to the dispatcher after the unit of work ends
// and never affects what was committed.
func (uc *TransactionUseCase) ProcessTransaction(ctx context.Context, input ProcessTransactionInput) (*TransactionReceipt, error) {
	input.ClientIdentification = strings.TrimSpace(input.ClientIdentification)
	input.AccountNumber = strings.TrimSpace(input.AccountNumber)

	transactionID := uc.newTransactionID()

	log := uc.logger.With().
		Str("client_identification", input.ClientIdentification).
		Str("account_number", input.AccountNumber).
		Str("amount", input.Amount.String()).
		Logger()

	if err := domain.ValidateTransaction(input.ClientIdentification, input.AccountNumber, input.Amount); err != nil {
		log.Warn().Err(err).Str("transaction_id", transactionID).Msg("transaction rejected")
		uc.dispatchFailure(transactionID, input, err)
		return nil, err
	}

	if uc.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.txTimeout)
		defer cancel()
	}

	var applied *appliedTransaction
	err := uc.retrier.Retry(ctx, func() error {
		result, err := uc.apply(ctx, transactionID, input)
		if errors.Is(err, domain.ErrDuplicateTransactionID) {
			transactionID = uc.newTransactionID()
		}
		if err != nil {
			return err
		}
		applied = result
		return nil
	})
	if err != nil {
		txErr := domain.AsTransactionError(err)
		if txErr.Code == domain.CodeSystem {
			log.Error().Err(err).Str("transaction_id", transactionID).Msg("transaction failed")
		} else {
			log.Warn().Err(err).Str("transaction_id", transactionID).Str("code", string(txErr.Code)).Msg("transaction rejected")
		}
		uc.dispatchFailure(transactionID, input, txErr)
		return nil, txErr
	}

	uc.invalidateBalance(ctx, input.ClientIdentification, input.AccountNumber)

	log.Info().
		Str("transaction_id", transactionID).
		Str("type", string(applied.entry.Type)).
		Str("new_balance", applied.newBalance.String()).
		Msg("transaction committed")

	uc.dispatcher.Dispatch(domain.CompletedEvent(
		transactionID,
		applied.clientID,
		input.AccountNumber,
		input.Amount,
		applied.newBalance,
		uc.now(),
	))

	return &TransactionReceipt{
		TransactionID: transactionID,
		Status:        StatusAccepted,
		Message:       "Transaction has been accepted and is being processed",
		ClientID:      applied.clientID,
		NewBalance:    applied.newBalance,
	}, nil
}

func (uc *TransactionUseCase) apply(ctx context.Context, transactionID string, input ProcessTransactionInput) (*appliedTransaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	client, err := uc.resolveClient(ctx, tx, input.ClientIdentification)
	if err != nil {
		return nil, err
	}

	// Locked until commit: concurrent requests on the same account queue here.
	balance, _, err := uc.balanceRepo.FindOrCreateForUpdate(ctx, tx, client.ID, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	now := uc.now()
	before := balance.CurrentBalance
	newBalance := balance.Apply(input.Amount)

	if err := uc.balanceRepo.UpdateBalance(ctx, tx, balance.ID, newBalance, now); err != nil {
		return nil, err
	}

	entry := domain.NewBalanceTransaction(transactionID, client.ID, input.AccountNumber, input.Amount, before, now)
	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &appliedTransaction{
		clientID:   client.ID,
		newBalance: newBalance,
		entry:      entry,
	}, nil
}

func (uc *TransactionUseCase) resolveClient(ctx context.Context, tx Transaction, identification string) (*domain.Client, error) {
	if uc.autoCreate {
		client, provisioning, err := uc.clientRepo.FindOrCreate(ctx, tx, identification)
		if err != nil {
			return nil, err
		}
		if provisioning == domain.Created {
			uc.logger.Debug().Str("client_identification", identification).Msg("client provisioned")
		}
		return client, nil
	}

	client, err := uc.clientRepo.GetByIdentificationTx(ctx, tx, identification)
	if errors.Is(err, domain.ErrClientNotFound) {
		return nil, domain.NewClientNotFoundError(identification)
	}

	return client, err
}

// GetBalance returns the current balance of a client's account.
func (uc *TransactionUseCase) GetBalance(ctx context.Context, clientIdentification, accountNumber string) (*domain.Balance, error) {
	key := balanceCacheKey(clientIdentification, accountNumber)

	var (
		generation int64
		fillable   bool
	)
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil && raw != nil {
			var cached domain.Balance
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}

		// Read before the store so a commit landing in between voids the fill.
		gen, err := uc.cache.Generation(ctx, key)
		if err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("balance cache generation lookup failed")
		} else {
			generation, fillable = gen, true
		}
	}

	client, err := uc.clientRepo.GetByIdentification(ctx, clientIdentification)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, err
	}

	balance, err := uc.balanceRepo.Get(ctx, client.ID, accountNumber)
	if err != nil {
		return nil, err
	}

	if fillable {
		uc.fillBalanceCache(ctx, key, balance, generation)
	}

	return balance, nil
}

func (uc *TransactionUseCase) fillBalanceCache(ctx context.Context, key string, balance *domain.Balance, generation int64) {
	raw, err := json.Marshal(balance)
	if err != nil {
		return
	}

	stored, err := uc.cache.SetIfGeneration(ctx, key, raw, generation, uc.cacheTTL)
	if err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("balance cache write failed")
		return
	}
	if !stored {
		uc.logger.Debug().Str("key", key).Msg("balance changed during read, cache fill skipped")
	}
}

// GetTransactionHistory returns the ledger entries of an account, newest first.
func (uc *TransactionUseCase) GetTransactionHistory(ctx context.Context, clientID int64, accountNumber string) ([]*domain.BalanceTransaction, error) {
	return uc.entryRepo.ListByAccount(ctx, clientID, accountNumber)
}

// GetTransactionHistoryByIdentification resolves the client first.
func (uc *TransactionUseCase) GetTransactionHistoryByIdentification(ctx context.Context, clientIdentification, accountNumber string) ([]*domain.BalanceTransaction, error) {
	client, err := uc.clientRepo.GetByIdentification(ctx, clientIdentification)
	if err != nil {
		return nil, err
	}

	return uc.GetTransactionHistory(ctx, client.ID, accountNumber)
}

// GetTransaction returns the ledger entry recorded under a transaction id.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, transactionID string) (*domain.BalanceTransaction, error) {
	return uc.entryRepo.GetByTransactionID(ctx, transactionID)
}

func (uc *TransactionUseCase) dispatchFailure(transactionID string, input ProcessTransactionInput, err error) {
	uc.dispatcher.Dispatch(domain.FailedEvent(
		transactionID,
		nil,
		input.AccountNumber,
		input.Amount,
		err,
		uc.now(),
	))
}

func (uc *TransactionUseCase) invalidateBalance(ctx context.Context, clientIdentification, accountNumber string) {
	if uc.cache == nil {
		return
	}

	// The commit already happened; a cancelled caller must not keep the old value cached.
	key := balanceCacheKey(clientIdentification, accountNumber)
	if err := uc.cache.Invalidate(context.WithoutCancel(ctx), key); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("balance cache invalidation failed")
	}
}

func (uc *TransactionUseCase) newTransactionID() string {
	return uc.idGen.Generate()
}

func balanceCacheKey(clientIdentification, accountNumber string) string {
	return balanceCacheKeyPrefix + clientIdentification + ":" + accountNumber
}

type onceRetrier struct{}

func (onceRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
