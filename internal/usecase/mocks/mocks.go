package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/usecase"
)

type balanceKey struct {
	clientID      int64
	accountNumber string
}

// Store is the shared in-memory state behind the mock repositories.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	clients     map[string]*domain.Client
	balances    map[balanceKey]*domain.Balance
	entries     []*domain.BalanceTransaction
	deadLetters map[int64]*domain.DeadLetterMessage
}

func NewStore() *Store {
	return &Store{
		clients:     make(map[string]*domain.Client),
		balances:    make(map[balanceKey]*domain.Balance),
		deadLetters: make(map[int64]*domain.DeadLetterMessage),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Entries returns a copy of every ledger entry in insertion order.
func (s *Store) Entries() []*domain.BalanceTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.BalanceTransaction, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// ClientCount returns the number of stored clients.
func (s *Store) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// BalanceCount returns the number of stored balances.
func (s *Store) BalanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.balances)
}

// MockTransactionManager serializes transactions: Begin blocks until the
// previous transaction commits or rolls back, which stands in for the row
// lock a real store takes on the balance.
type MockTransactionManager struct {
	lock sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	CommitErr error

	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.lock.Lock()
	return &MockTransaction{mgr: m}, nil
}

// MockTransaction undoes its writes on rollback.
type MockTransaction struct {
	mgr  *MockTransactionManager
	undo []func()
	done bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

// OnRollback registers an undo step for a write made inside the transaction.
func (t *MockTransaction) OnRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	if t.done {
		return fmt.Errorf("transaction already closed")
	}
	if t.mgr != nil && t.mgr.CommitErr != nil {
		return t.mgr.CommitErr
	}
	t.finish(true)
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.finish(false)
	return nil
}

func (t *MockTransaction) finish(committed bool) {
	t.done = true
	if t.mgr == nil {
		return
	}
	t.mgr.mu.Lock()
	if committed {
		t.mgr.Commits++
	} else {
		t.mgr.Rollbacks++
	}
	t.mgr.mu.Unlock()
	t.mgr.lock.Unlock()
}

func onRollback(tx usecase.Transaction, fn func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.OnRollback(fn)
	}
}

// MockClientRepository is a mock implementation of ClientRepository.
type MockClientRepository struct {
	store *Store

	FindOrCreateFunc        func(ctx context.Context, tx usecase.Transaction, identification string) (*domain.Client, domain.Provisioning, error)
	GetByIdentificationFunc func(ctx context.Context, identification string) (*domain.Client, error)
}

func NewMockClientRepository(store *Store) *MockClientRepository {
	return &MockClientRepository{store: store}
}

func (m *MockClientRepository) FindOrCreate(ctx context.Context, tx usecase.Transaction, identification string) (*domain.Client, domain.Provisioning, error) {
	if m.FindOrCreateFunc != nil {
		return m.FindOrCreateFunc(ctx, tx, identification)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if c, ok := m.store.clients[identification]; ok {
		cp := *c
		return &cp, domain.Found, nil
	}
	c := domain.NewPlaceholderClient(identification, time.Now().UTC())
	c.ID = m.store.id()
	m.store.clients[identification] = c
	onRollback(tx, func() {
		m.store.mu.Lock()
		delete(m.store.clients, identification)
		m.store.mu.Unlock()
	})
	cp := *c
	return &cp, domain.Created, nil
}

func (m *MockClientRepository) GetByIdentification(ctx context.Context, identification string) (*domain.Client, error) {
	if m.GetByIdentificationFunc != nil {
		return m.GetByIdentificationFunc(ctx, identification)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if c, ok := m.store.clients[identification]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrClientNotFound
}

func (m *MockClientRepository) GetByIdentificationTx(ctx context.Context, tx usecase.Transaction, identification string) (*domain.Client, error) {
	return m.GetByIdentification(ctx, identification)
}

// Seed inserts a client directly.
func (m *MockClientRepository) Seed(identification string) *domain.Client {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := domain.NewPlaceholderClient(identification, time.Now().UTC())
	c.ID = m.store.id()
	m.store.clients[identification] = c
	cp := *c
	return &cp
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	store *Store

	FindOrCreateForUpdateFunc func(ctx context.Context, tx usecase.Transaction, clientID int64, accountNumber string) (*domain.Balance, domain.Provisioning, error)
	UpdateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, id int64, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc                  func(ctx context.Context, limit, offset int) ([]*domain.Balance, error)
}

func NewMockBalanceRepository(store *Store) *MockBalanceRepository {
	return &MockBalanceRepository{store: store}
}

func (m *MockBalanceRepository) FindOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, clientID int64, accountNumber string) (*domain.Balance, domain.Provisioning, error) {
	if m.FindOrCreateForUpdateFunc != nil {
		return m.FindOrCreateForUpdateFunc(ctx, tx, clientID, accountNumber)
	}
	key := balanceKey{clientID, accountNumber}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if b, ok := m.store.balances[key]; ok {
		cp := *b
		return &cp, domain.Found, nil
	}
	b := domain.NewBalance(clientID, accountNumber, time.Now().UTC())
	b.ID = m.store.id()
	m.store.balances[key] = b
	onRollback(tx, func() {
		m.store.mu.Lock()
		delete(m.store.balances, key)
		m.store.mu.Unlock()
	})
	cp := *b
	return &cp, domain.Created, nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, clientID int64, accountNumber string) (*domain.Balance, error) {
	return m.Get(ctx, clientID, accountNumber)
}

func (m *MockBalanceRepository) Get(ctx context.Context, clientID int64, accountNumber string) (*domain.Balance, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	if b, ok := m.store.balances[balanceKey{clientID, accountNumber}]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id int64, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, b := range m.store.balances {
		if b.ID != id {
			continue
		}
		if balance.IsNegative() {
			return fmt.Errorf("check constraint: current_balance >= 0")
		}
		prevBalance, prevUpdated := b.CurrentBalance, b.UpdatedAt
		b.CurrentBalance = balance
		b.UpdatedAt = updatedAt
		onRollback(tx, func() {
			m.store.mu.Lock()
			b.CurrentBalance = prevBalance
			b.UpdatedAt = prevUpdated
			m.store.mu.Unlock()
		})
		return nil
	}
	return domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Balance, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	all := make([]*domain.Balance, 0, len(m.store.balances))
	for _, b := range m.store.balances {
		cp := *b
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []*domain.Balance{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// SetBalance overwrites a stored balance, creating it when missing.
func (m *MockBalanceRepository) SetBalance(clientID int64, accountNumber string, amount decimal.Decimal) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	key := balanceKey{clientID, accountNumber}
	b, ok := m.store.balances[key]
	if !ok {
		b = domain.NewBalance(clientID, accountNumber, time.Now().UTC())
		b.ID = m.store.id()
		m.store.balances[key] = b
	}
	b.CurrentBalance = amount
}

// MockBalanceTransactionRepository is a mock implementation of BalanceTransactionRepository.
type MockBalanceTransactionRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceTransaction) error
}

func NewMockBalanceTransactionRepository(store *Store) *MockBalanceTransactionRepository {
	return &MockBalanceTransactionRepository{store: store}
}

func (m *MockBalanceTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, e := range m.store.entries {
		if e.TransactionID == entry.TransactionID {
			return domain.ErrDuplicateTransactionID
		}
	}
	entry.ID = m.store.id()
	cp := *entry
	m.store.entries = append(m.store.entries, &cp)
	onRollback(tx, func() {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
		for i, e := range m.store.entries {
			if e.ID == cp.ID {
				m.store.entries = append(m.store.entries[:i], m.store.entries[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockBalanceTransactionRepository) ListByAccount(ctx context.Context, clientID int64, accountNumber string) ([]*domain.BalanceTransaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	out := make([]*domain.BalanceTransaction, 0)
	for i := len(m.store.entries) - 1; i >= 0; i-- {
		e := m.store.entries[i]
		if e.ClientID == clientID && e.AccountNumber == accountNumber {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockBalanceTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.BalanceTransaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	for _, e := range m.store.entries {
		if e.TransactionID == transactionID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// Append stores an entry as is, bypassing every check.
func (m *MockBalanceTransactionRepository) Append(entry *domain.BalanceTransaction) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	entry.ID = m.store.id()
	m.store.entries = append(m.store.entries, entry)
}

// MockDeadLetterRepository is a mock implementation of DeadLetterRepository.
type MockDeadLetterRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, msg *domain.DeadLetterMessage) error
	DeleteFunc func(ctx context.Context, id int64) error
}

func NewMockDeadLetterRepository(store *Store) *MockDeadLetterRepository {
	return &MockDeadLetterRepository{store: store}
}

func (m *MockDeadLetterRepository) Create(ctx context.Context, msg *domain.DeadLetterMessage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	msg.ID = m.store.id()
	cp := *msg
	m.store.deadLetters[msg.ID] = &cp
	return nil
}

func (m *MockDeadLetterRepository) ListByTopic(ctx context.Context, topic string) ([]*domain.DeadLetterMessage, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	out := make([]*domain.DeadLetterMessage, 0)
	for _, msg := range m.store.deadLetters {
		if msg.Topic == topic {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockDeadLetterRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.deadLetters, id)
	return nil
}

func (m *MockDeadLetterRepository) Count(ctx context.Context) (int64, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return int64(len(m.store.deadLetters)), nil
}

func (m *MockDeadLetterRepository) CountByTopic(ctx context.Context, topic string) (int64, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var n int64
	for _, msg := range m.store.deadLetters {
		if msg.Topic == topic {
			n++
		}
	}
	return n, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%smock%06d", usecase.TransactionIDPrefix, m.counter)
}

// MockDispatcher records every dispatched event.
type MockDispatcher struct {
	mu     sync.Mutex
	events []*domain.TransactionResultEvent
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Dispatch(event *domain.TransactionResultEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockDispatcher) Events() []*domain.TransactionResultEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.TransactionResultEvent(nil), m.events...)
}

// MockRetrier retries while RetryIf matches, up to MaxAttempts.
type MockRetrier struct {
	MaxAttempts int
	RetryIf     func(error) bool
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for attempt := 0; attempt < m.MaxAttempts; attempt++ {
		err = operation()
		if err == nil || m.RetryIf == nil || !m.RetryIf(err) {
			return err
		}
	}
	return err
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	generations map[string]int64

	Gets          int
	Invalidations int
	RejectedFills int
}

func NewMockCache() *MockCache {
	return &MockCache{
		data:        make(map[string][]byte),
		generations: make(map[string]int64),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}
	return v, nil
}

func (m *MockCache) Generation(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[key], nil
}

func (m *MockCache) SetIfGeneration(ctx context.Context, key string, value []byte, generation int64, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[key] != generation {
		m.RejectedFills++
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *MockCache) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations++
	m.generations[key]++
	delete(m.data, key)
	return nil
}

// Stats returns the counters under the lock.
func (m *MockCache) Stats() (invalidations, rejectedFills int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Invalidations, m.RejectedFills
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Get returns the stored value for key.
func (m *MockIdempotencyStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyProcessing)
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
