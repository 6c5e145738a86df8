package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getBalance = `-- name: GetBalance :one
SELECT id, client_id, account_number, current_balance, created_at, updated_at FROM balances
WHERE client_id = $1 AND account_number = $2
`

type GetBalanceParams struct {
	ClientID      int64  `json:"client_id"`
	AccountNumber string `json:"account_number"`
}

func (q *Queries) GetBalance(ctx context.Context, arg GetBalanceParams) (Balance, error) {
	row := q.db.QueryRow(ctx, getBalance, arg.ClientID, arg.AccountNumber)
	var i Balance
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.AccountNumber,
		&i.CurrentBalance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBalanceForUpdate = `-- name: GetBalanceForUpdate :one
SELECT id, client_id, account_number, current_balance, created_at, updated_at FROM balances
WHERE client_id = $1 AND account_number = $2
FOR UPDATE
`

type GetBalanceForUpdateParams struct {
	ClientID      int64  `json:"client_id"`
	AccountNumber string `json:"account_number"`
}

func (q *Queries) GetBalanceForUpdate(ctx context.Context, arg GetBalanceForUpdateParams) (Balance, error) {
	row := q.db.QueryRow(ctx, getBalanceForUpdate, arg.ClientID, arg.AccountNumber)
	var i Balance
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.AccountNumber,
		&i.CurrentBalance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertBalanceIfAbsent = `-- name: InsertBalanceIfAbsent :one
INSERT INTO balances (client_id, account_number, current_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (client_id, account_number) DO NOTHING
RETURNING id, client_id, account_number, current_balance, created_at, updated_at
`

type InsertBalanceIfAbsentParams struct {
	ClientID       int64              `json:"client_id"`
	AccountNumber  string             `json:"account_number"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) InsertBalanceIfAbsent(ctx context.Context, arg InsertBalanceIfAbsentParams) (Balance, error) {
	row := q.db.QueryRow(ctx, insertBalanceIfAbsent,
		arg.ClientID,
		arg.AccountNumber,
		arg.CurrentBalance,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i Balance
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.AccountNumber,
		&i.CurrentBalance,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBalances = `-- name: ListBalances :many
SELECT id, client_id, account_number, current_balance, created_at, updated_at FROM balances
ORDER BY id
LIMIT $1 OFFSET $2
`

type ListBalancesParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListBalances(ctx context.Context, arg ListBalancesParams) ([]Balance, error) {
	rows, err := q.db.Query(ctx, listBalances, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Balance{}
	for rows.Next() {
		var i Balance
		if err := rows.Scan(
			&i.ID,
			&i.ClientID,
			&i.AccountNumber,
			&i.CurrentBalance,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updateBalance = `-- name: UpdateBalance :execrows
UPDATE balances SET current_balance = $2, updated_at = $3 WHERE id = $1
`

type UpdateBalanceParams struct {
	ID             int64              `json:"id"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateBalance(ctx context.Context, arg UpdateBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateBalance, arg.ID, arg.CurrentBalance, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
