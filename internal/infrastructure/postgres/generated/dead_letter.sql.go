package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countDeadLetterMessages = `-- name: CountDeadLetterMessages :one
SELECT COUNT(*) FROM dead_letter_messages
`

func (q *Queries) CountDeadLetterMessages(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countDeadLetterMessages)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countDeadLetterMessagesByTopic = `-- name: CountDeadLetterMessagesByTopic :one
SELECT COUNT(*) FROM dead_letter_messages WHERE topic = $1
`

func (q *Queries) CountDeadLetterMessagesByTopic(ctx context.Context, topic string) (int64, error) {
	row := q.db.QueryRow(ctx, countDeadLetterMessagesByTopic, topic)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createDeadLetterMessage = `-- name: CreateDeadLetterMessage :one
INSERT INTO dead_letter_messages (topic, payload, error, created_date)
VALUES ($1, $2, $3, $4)
RETURNING id
`

type CreateDeadLetterMessageParams struct {
	Topic       string             `json:"topic"`
	Payload     string             `json:"payload"`
	Error       pgtype.Text        `json:"error"`
	CreatedDate pgtype.Timestamptz `json:"created_date"`
}

func (q *Queries) CreateDeadLetterMessage(ctx context.Context, arg CreateDeadLetterMessageParams) (int64, error) {
	row := q.db.QueryRow(ctx, createDeadLetterMessage,
		arg.Topic,
		arg.Payload,
		arg.Error,
		arg.CreatedDate,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteDeadLetterMessage = `-- name: DeleteDeadLetterMessage :exec
DELETE FROM dead_letter_messages WHERE id = $1
`

func (q *Queries) DeleteDeadLetterMessage(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteDeadLetterMessage, id)
	return err
}

const listDeadLetterMessagesByTopic = `-- name: ListDeadLetterMessagesByTopic :many
SELECT id, topic, payload, error, created_date FROM dead_letter_messages
WHERE topic = $1
ORDER BY created_date, id
`

func (q *Queries) ListDeadLetterMessagesByTopic(ctx context.Context, topic string) ([]DeadLetterMessage, error) {
	rows, err := q.db.Query(ctx, listDeadLetterMessagesByTopic, topic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DeadLetterMessage{}
	for rows.Next() {
		var i DeadLetterMessage
		if err := rows.Scan(
			&i.ID,
			&i.Topic,
			&i.Payload,
			&i.Error,
			&i.CreatedDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
