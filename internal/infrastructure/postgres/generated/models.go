package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Balance struct {
	ID             int64              `json:"id"`
	ClientID       int64              `json:"client_id"`
	AccountNumber  string             `json:"account_number"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type BalanceTransaction struct {
	ID              int64              `json:"id"`
	TransactionID   string             `json:"transaction_id"`
	ClientID        int64              `json:"client_id"`
	AccountNumber   string             `json:"account_number"`
	Amount          pgtype.Numeric     `json:"amount"`
	BalanceBefore   pgtype.Numeric     `json:"balance_before"`
	BalanceAfter    pgtype.Numeric     `json:"balance_after"`
	TransactionType string             `json:"transaction_type"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type Client struct {
	ID             int64              `json:"id"`
	Identification string             `json:"identification"`
	Name           string             `json:"name"`
	Lastname       string             `json:"lastname"`
	Birthday       pgtype.Date        `json:"birthday"`
	Phone          pgtype.Text        `json:"phone"`
	Email          pgtype.Text        `json:"email"`
	Address        pgtype.Text        `json:"address"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

type DeadLetterMessage struct {
	ID          int64              `json:"id"`
	Topic       string             `json:"topic"`
	Payload     string             `json:"payload"`
	Error       pgtype.Text        `json:"error"`
	CreatedDate pgtype.Timestamptz `json:"created_date"`
}
