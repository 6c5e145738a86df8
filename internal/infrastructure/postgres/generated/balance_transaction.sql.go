package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createBalanceTransaction = `-- name: CreateBalanceTransaction :one
INSERT INTO balance_transactions (transaction_id, client_id, account_number, amount, balance_before, balance_after, transaction_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`

type CreateBalanceTransactionParams struct {
	TransactionID   string             `json:"transaction_id"`
	ClientID        int64              `json:"client_id"`
	AccountNumber   string             `json:"account_number"`
	Amount          pgtype.Numeric     `json:"amount"`
	BalanceBefore   pgtype.Numeric     `json:"balance_before"`
	BalanceAfter    pgtype.Numeric     `json:"balance_after"`
	TransactionType string             `json:"transaction_type"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateBalanceTransaction(ctx context.Context, arg CreateBalanceTransactionParams) (int64, error) {
	row := q.db.QueryRow(ctx, createBalanceTransaction,
		arg.TransactionID,
		arg.ClientID,
		arg.AccountNumber,
		arg.Amount,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.TransactionType,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getBalanceTransactionByTransactionID = `-- name: GetBalanceTransactionByTransactionID :one
SELECT id, transaction_id, client_id, account_number, amount, balance_before, balance_after, transaction_type, created_at FROM balance_transactions
WHERE transaction_id = $1
`

func (q *Queries) GetBalanceTransactionByTransactionID(ctx context.Context, transactionID string) (BalanceTransaction, error) {
	row := q.db.QueryRow(ctx, getBalanceTransactionByTransactionID, transactionID)
	var i BalanceTransaction
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.ClientID,
		&i.AccountNumber,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.TransactionType,
		&i.CreatedAt,
	)
	return i, err
}

const listBalanceTransactionsByAccount = `-- name: ListBalanceTransactionsByAccount :many
SELECT id, transaction_id, client_id, account_number, amount, balance_before, balance_after, transaction_type, created_at FROM balance_transactions
WHERE client_id = $1 AND account_number = $2
ORDER BY id DESC
`

type ListBalanceTransactionsByAccountParams struct {
	ClientID      int64  `json:"client_id"`
	AccountNumber string `json:"account_number"`
}

func (q *Queries) ListBalanceTransactionsByAccount(ctx context.Context, arg ListBalanceTransactionsByAccountParams) ([]BalanceTransaction, error) {
	rows, err := q.db.Query(ctx, listBalanceTransactionsByAccount, arg.ClientID, arg.AccountNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BalanceTransaction{}
	for rows.Next() {
		var i BalanceTransaction
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.ClientID,
			&i.AccountNumber,
			&i.Amount,
			&i.BalanceBefore,
			&i.BalanceAfter,
			&i.TransactionType,
			&i.CreatedAt,
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
