package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is the number of smallest currency units (paise) in one
// major unit (rupee).
const MinorUnitsPerMajor = 100

// Money is an amount in the smallest currency unit. It is never a float.
type Money int64

// MoneyFromMajor converts a major-unit decimal (e.g. 1000.50) into minor units.
// Amounts with fractions below one minor unit are rejected.
func MoneyFromMajor(major decimal.Decimal) (Money, error) {
	minor := major.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than two decimal places", major.String())
	}
	return Money(minor.IntPart()), nil
}

// Major returns the amount in major units.
func (m Money) Major() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Percent returns pct percent of m rounded to a whole major unit, half away
// from zero. Coupon discounts are always whole rupees.
func (m Money) Percent(pct int) Money {
	d := m.Major().Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	return Money(d.Round(0).Shift(2).IntPart())
}

func (m Money) String() string {
	return m.Major().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Major().StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := MoneyFromMajor(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
