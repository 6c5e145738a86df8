package domain

import (
	"github.com/shopspring/decimal"
)

// Money is an amount carried in result events. It is written as a bare JSON
// number with exactly AmountScale decimal places.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to AmountScale.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(AmountScale)}
}

// MarshalJSON writes 100.50, not "100.5".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(AmountScale)), nil
}

// UnmarshalJSON accepts a number or a quoted string and restores AmountScale.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}
