// Package core provides the domain types shared by every layer: entities,
// validation, sentinel errors, and the Money type.
package core

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount with two-decimal precision. It is persisted as
// integer cents and rendered as a plain JSON number on the wire.
type Money struct {
	dec decimal.Decimal
}

var ErrInvalidAmount = errors.New("invalid amount")

func NewMoney(d decimal.Decimal) Money {
	return Money{dec: d}
}

// MoneyFromCents converts an integer cent count to a Money value.
func MoneyFromCents(cents int64) Money {
	return Money{dec: decimal.New(cents, -2)}
}

func MoneyFromFloat(f float64) Money {
	return Money{dec: decimal.NewFromFloat(f).Round(2)}
}

// ParseMoney parses a decimal string like "94.89".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{dec: d.Round(2)}, nil
}

func (m Money) Decimal() decimal.Decimal { return m.dec }

// Cents returns the amount rounded to two decimals as integer cents.
func (m Money) Cents() int64 {
	return m.dec.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

func (m Money) Add(o Money) Money { return Money{dec: m.dec.Add(o.dec)} }
func (m Money) Sub(o Money) Money { return Money{dec: m.dec.Sub(o.dec)} }

// Min returns the smaller of the two amounts.
func (m Money) Min(o Money) Money {
	if m.dec.LessThan(o.dec) {
		return m
	}
	return o
}

func (m Money) IsZero() bool          { return m.dec.IsZero() }
func (m Money) IsNegative() bool      { return m.dec.IsNegative() }
func (m Money) LessThan(o Money) bool { return m.dec.LessThan(o.dec) }
func (m Money) Equal(o Money) bool    { return m.dec.Round(2).Equal(o.dec.Round(2)) }

func (m Money) String() string { return m.dec.Round(2).StringFixed(2) }

// Validate rejects negative amounts. Zero is allowed; callers that require a
// strictly positive amount check IsZero themselves.
func (m Money) Validate() error {
	if m.dec.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders the amount as an unquoted number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.Round(2).StringFixed(2)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.dec = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.dec = d.Round(2)
	return nil
}
