package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/govalues/decimal"
)

// MoneyScale is the number of fractional digits kept for amounts
const MoneyScale = 2

// Money is a fixed-point amount with two fractional digits
type Money struct {
	d decimal.Decimal
}

// ParseMoney parses a decimal string such as "100.50"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d.Round(MoneyScale)}, nil
}

// MustParseMoney is like ParseMoney but panics on error
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Neg returns the amount with the opposite sign
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// IsNeg reports whether the amount is below zero
func (m Money) IsNeg() bool {
	return m.d.IsNeg()
}

// IsPos reports whether the amount is above zero
func (m Money) IsPos() bool {
	return m.d.IsPos()
}

// Equal reports whether two amounts are numerically equal regardless of scale
func (m Money) Equal(o Money) bool {
	return m.d.Cmp(o.d) == 0
}

func (m Money) String() string {
	return m.d.String()
}

// Scan implements sql.Scanner. lib/pq hands NUMERIC columns over as []byte.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return m.parse(string(v))
	case string:
		return m.parse(v)
	case int64:
		d, err := decimal.New(v, 0)
		if err != nil {
			return err
		}
		m.d = d
		return nil
	case float64:
		d, err := decimal.NewFromFloat64(v)
		if err != nil {
			return err
		}
		m.d = d.Round(MoneyScale)
		return nil
	case nil:
		return fmt.Errorf("cannot scan NULL into Money")
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// MarshalJSON encodes the amount as a JSON string to keep precision
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.d.String())
}

// UnmarshalJSON accepts both "100.50" and 100.50
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a string or number")
		}
		s = n.String()
	}
	return m.parse(s)
}

func (m *Money) parse(s string) error {
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
