package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinContribution is the smallest amount a single contribution may carry.
var MinContribution = NewMoney(decimal.NewFromInt(1))

// MaxMoney is the largest amount a decimal(10,2) column holds.
var MaxMoney = Money{Decimal: decimal.RequireFromString("99999999.99")}

var (
	ErrMoneyPrecision = errors.New("amount has more than 2 decimal places")
	ErrMoneyRange     = errors.New("amount exceeds 99999999.99")
)

// Money is a fixed-currency amount of at most 2 decimal places. Decoded
// values keep their exact digits; Check rejects what the ledger cannot
// store instead of rounding it.
type Money struct {
	decimal.Decimal
}

func NewMoney(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(2)}
}

// ParseMoney parses a decimal string such as "12.50" without rounding.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

// Check reports whether m is storable as is: whole cents, within MaxMoney.
// Trailing zeros such as "400.000" are fine.
func (m Money) Check() error {
	if !m.Decimal.Equal(m.Decimal.Round(2)) {
		return ErrMoneyPrecision
	}
	if m.Decimal.Abs().GreaterThan(MaxMoney.Decimal) {
		return ErrMoneyRange
	}
	return nil
}

func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

func (m Money) Add(other Money) Money {
	return NewMoney(m.Decimal.Add(other.Decimal))
}

func (m Money) Sub(other Money) Money {
	return NewMoney(m.Decimal.Sub(other.Decimal))
}

// MarshalJSON always emits a 2-decimal string so clients never see float drift.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.Round(2).StringFixed(2))
}

// UnmarshalJSON accepts both a JSON string and a JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).Value()
}

func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}

// SumMoney adds amounts in decimal arithmetic.
func SumMoney(amounts []Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
