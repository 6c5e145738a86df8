package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransact/internal/domain"
	"github.com/iho/gotransact/internal/infrastructure/postgres/generated"
	"github.com/iho/gotransact/internal/usecase"
)

// queriesFor binds the generated queries to the pgx transaction behind tx.
func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: unsupported transaction type %T", tx)
	}
	return generated.New(pgTx.PgxTx()), nil
}

func rowToClient(row generated.Client) *domain.Client {
	client := &domain.Client{
		ID:             row.ID,
		Identification: row.Identification,
		Name:           row.Name,
		Lastname:       row.Lastname,
		Phone:          row.Phone.String,
		Email:          row.Email.String,
		Address:        row.Address.String,
		CreatedAt:      row.CreatedAt.Time,
	}
	if row.Birthday.Valid {
		birthday := row.Birthday.Time
		client.Birthday = &birthday
	}
	return client
}

func rowToBalance(row generated.Balance) *domain.Balance {
	return &domain.Balance{
		ID:             row.ID,
		ClientID:       row.ClientID,
		AccountNumber:  row.AccountNumber,
		CurrentBalance: numericToDecimal(row.CurrentBalance),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func rowToBalanceTransaction(row generated.BalanceTransaction) *domain.BalanceTransaction {
	return &domain.BalanceTransaction{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		ClientID:      row.ClientID,
		AccountNumber: row.AccountNumber,
		Amount:        numericToDecimal(row.Amount),
		BalanceBefore: numericToDecimal(row.BalanceBefore),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Type:          domain.TransactionType(row.TransactionType),
		CreatedAt:     row.CreatedAt.Time,
	}
}

func rowToDeadLetter(row generated.DeadLetterMessage) *domain.DeadLetterMessage {
	msg := &domain.DeadLetterMessage{
		ID:        row.ID,
		Topic:     row.Topic,
		Payload:   row.Payload,
		CreatedAt: row.CreatedDate.Time,
	}
	if row.Error.Valid {
		e := row.Error.String
		msg.Error = &e
	}
	return msg
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func stringToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
