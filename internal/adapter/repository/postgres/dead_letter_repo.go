package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/postgres/generated"
)

// DeadLetterRepository implements usecase.DeadLetterRepository. Writes run
// outside any ledger transaction so a dead letter survives rollbacks.
type DeadLetterRepository struct {
	queries *generated.Queries
}

// NewDeadLetterRepository creates a new DeadLetterRepository.
func NewDeadLetterRepository(pool *pgxpool.Pool) *DeadLetterRepository {
	return newDeadLetterRepository(pool)
}

func newDeadLetterRepository(db generated.DBTX) *DeadLetterRepository {
	return &DeadLetterRepository{queries: generated.New(db)}
}

// Create stores a message and sets its ID.
func (r *DeadLetterRepository) Create(ctx context.Context, msg *domain.DeadLetterMessage) error {
	id, err := r.queries.CreateDeadLetterMessage(ctx, generated.CreateDeadLetterMessageParams{
		Topic:       msg.Topic,
		Payload:     msg.Payload,
		Error:       stringToPgText(msg.Error),
		CreatedDate: timeToPgTimestamptz(msg.CreatedAt),
	})
	if err != nil {
		return err
	}

	msg.ID = id

	return nil
}

// ListByTopic lists messages for a topic, oldest first.
func (r *DeadLetterRepository) ListByTopic(ctx context.Context, topic string) ([]*domain.DeadLetterMessage, error) {
	rows, err := r.queries.ListDeadLetterMessagesByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}

	msgs := make([]*domain.DeadLetterMessage, len(rows))
	for i, row := range rows {
		msgs[i] = rowToDeadLetter(row)
	}

	return msgs, nil
}

// Delete removes a message.
func (r *DeadLetterRepository) Delete(ctx context.Context, id int64) error {
	return r.queries.DeleteDeadLetterMessage(ctx, id)
}

// Count counts all messages.
func (r *DeadLetterRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountDeadLetterMessages(ctx)
}

// CountByTopic counts messages for a topic.
func (r *DeadLetterRepository) CountByTopic(ctx context.Context, topic string) (int64, error) {
	return r.queries.CountDeadLetterMessagesByTopic(ctx, topic)
}
