package usecase

import "time"

const (
	// TransactionIDPrefix marks identifiers issued by the processor.
	TransactionIDPrefix = "txn_"

	// StatusAccepted is reported to callers once a unit of work commits.
	StatusAccepted = "ACCEPTED"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyProcessing is the stored value while the first request for
	// a key is still in flight.
	IdempotencyProcessing = "processing"

	balanceCacheKeyPrefix = "balance:"
)
