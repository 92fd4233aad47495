// Package money represents currency amounts as integer minor units.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOverflow reports an amount that does not fit in Cents.
var ErrOverflow = errors.New("amount out of range")

// Cents is an amount in minor currency units.
type Cents int64

// Mul returns c multiplied by a quantity.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// MulChecked is Mul that fails with ErrOverflow instead of wrapping.
func (c Cents) MulChecked(qty int) (Cents, error) {
	if c == 0 || qty == 0 {
		return 0, nil
	}
	r := c * Cents(qty)
	if r/Cents(qty) != c {
		return 0, ErrOverflow
	}
	return r, nil
}

// Decimal returns the amount as a decimal in minor units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c))
}

// Sum adds up amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// SumChecked is Sum that fails with ErrOverflow instead of wrapping.
func SumChecked(amounts ...Cents) (Cents, error) {
	var total Cents
	for _, a := range amounts {
		if (a > 0 && total > math.MaxInt64-a) || (a < 0 && total < math.MinInt64-a) {
			return 0, ErrOverflow
		}
		total += a
	}
	return total, nil
}

// Ratio divides num by den. ok is false when den is not positive, in which
// case the ratio is undefined and callers must report it as absent.
func Ratio(num, den int64) (r decimal.Decimal, ok bool) {
	if den <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(den)), true
}

// Average divides an amount by a count, rounding half away from zero to whole
// minor units. It returns nil when count is not positive.
func Average(total Cents, count int64) *Cents {
	r, ok := Ratio(int64(total), count)
	if !ok {
		return nil
	}
	v := Cents(r.Round(0).IntPart())
	return &v
}

// BasisPoints applies a rate expressed in basis points (1/100 of a percent)
// to an amount, rounding half away from zero to whole minor units.
func BasisPoints(amount Cents, bps int64) Cents {
	if bps == 0 || amount == 0 {
		return 0
	}
	v := amount.Decimal().Mul(decimal.NewFromInt(bps)).Div(decimal.NewFromInt(10000))
	return Cents(v.Round(0).IntPart())
}
