package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an amount in the smallest unit of a currency (cents, sen, ...).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New constructs a Money value.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// IsZero reports whether the value carries no currency and no amount.
func (m Money) IsZero() bool {
	return m.Amount == 0 && m.Currency == ""
}

// Negate returns the value with the sign of the amount flipped.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// SameCurrency reports whether both values share a currency code.
func (m Money) SameCurrency(o Money) bool {
	return m.Currency == o.Currency
}

// Add sums two values of the same currency.
func (m Money) Add(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Mul multiplies the amount by an arbitrary-precision factor and rounds the
// result back to minor units, half away from zero.
func (m Money) Mul(factor decimal.Decimal) Money {
	amount := decimal.NewFromInt(m.Amount).Mul(factor).Round(0)
	return Money{Amount: amount.IntPart(), Currency: m.Currency}
}

// Percent applies a signed percentage (e.g. -25 deducts a quarter) and rounds
// to minor units, half away from zero.
func (m Money) Percent(pct decimal.Decimal) Money {
	amount := decimal.NewFromInt(m.Amount).Mul(pct).Div(decimal.NewFromInt(100)).Round(0)
	return Money{Amount: amount.IntPart(), Currency: m.Currency}
}

// String renders the value for logs and error messages.
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
