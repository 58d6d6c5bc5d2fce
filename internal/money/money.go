package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the number of decimal places of the smallest currency
// unit. Amounts are always rounded to this precision, never carried with
// more digits.
const minorUnitPlaces = 0

// DefaultTaxRate is the statutory sales tax applied to order subtotals.
// It is the fallback when no rate is configured.
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// Money is an exact currency amount. The zero value is zero money.
type Money struct {
	amount decimal.Decimal
}

// New returns a Money of the given whole minor units.
func New(units int64) Money {
	return Money{amount: decimal.NewFromInt(units)}
}

// Zero is the additive identity.
var Zero = Money{}

// FromDecimal rounds d to the minor unit and wraps it.
func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(minorUnitPlaces)}
}

// Parse reads a decimal string such as "27500" or "27500.00".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MulQty scales the amount by an integer quantity.
func (m Money) MulQty(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

// MulRate multiplies by a fractional rate and rounds half-up to the minor
// unit. This is the only operation that can produce sub-unit digits, so it
// is the only one that rounds.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(rate).Round(minorUnitPlaces)}
}

// Cmp returns -1, 0 or 1 when m is less than, equal to or greater than other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Decimal exposes the underlying exact value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) String() string {
	return m.amount.StringFixed(minorUnitPlaces)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	d := decimal.Decimal{}
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: unmarshal: %w", err)
	}
	m.amount = d.Round(minorUnitPlaces)
	return nil
}

// Value implements driver.Valuer so Money maps to NUMERIC columns.
func (m Money) Value() (driver.Value, error) {
	return m.amount.Value()
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	d := decimal.Decimal{}
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan: %w", err)
	}
	m.amount = d.Round(minorUnitPlaces)
	return nil
}

// Tax computes the tax portion for a subtotal at the given rate,
// rounded half-up to the minor unit.
func Tax(subtotal Money, rate decimal.Decimal) Money {
	return subtotal.MulRate(rate)
}
