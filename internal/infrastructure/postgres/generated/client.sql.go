package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getClientByIdentification = `-- name: GetClientByIdentification :one
SELECT id, identification, name, lastname, birthday, phone, email, address, created_at FROM clients WHERE identification = $1
`

func (q *Queries) GetClientByIdentification(ctx context.Context, identification string) (Client, error) {
	row := q.db.QueryRow(ctx, getClientByIdentification, identification)
	var i Client
	err := row.Scan(
		&i.ID,
		&i.Identification,
		&i.Name,
		&i.Lastname,
		&i.Birthday,
		&i.Phone,
		&i.Email,
		&i.Address,
		&i.CreatedAt,
	)
	return i, err
}

const insertClientIfAbsent = `-- name: InsertClientIfAbsent :one
INSERT INTO clients (identification, name, lastname, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (identification) DO NOTHING
RETURNING id, identification, name, lastname, birthday, phone, email, address, created_at
`

type InsertClientIfAbsentParams struct {
	Identification string             `json:"identification"`
	Name           string             `json:"name"`
	Lastname       string             `json:"lastname"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) InsertClientIfAbsent(ctx context.Context, arg InsertClientIfAbsentParams) (Client, error) {
	row := q.db.QueryRow(ctx, insertClientIfAbsent,
		arg.Identification,
		arg.Name,
		arg.Lastname,
		arg.CreatedAt,
	)
	var i Client
	err := row.Scan(
		&i.ID,
		&i.Identification,
		&i.Name,
		&i.Lastname,
		&i.Birthday,
		&i.Phone,
		&i.Email,
		&i.Address,
		&i.CreatedAt,
	)
	return i, err
}
