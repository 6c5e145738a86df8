package postgres

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TransactionIDGenerator issues transaction identifiers: a fixed prefix
// followed by a lowercase ULID. IDs from one generator sort in issue order,
// even within the same millisecond.
type TransactionIDGenerator struct {
	prefix string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewTransactionIDGenerator creates a generator that prepends prefix.
func NewTransactionIDGenerator(prefix string) *TransactionIDGenerator {
	return &TransactionIDGenerator{
		prefix:  prefix,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate returns the next identifier.
func (g *TransactionIDGenerator) Generate() string {
	g.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	g.mu.Unlock()

	return g.prefix + strings.ToLower(id.String())
}
