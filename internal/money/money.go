// Package money converts between decimal amount strings and integer cents.
//
// All ledger arithmetic happens on Cents. Decimal strings only appear at the
// API boundary, where shopspring/decimal does the parsing and formatting.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits a currency amount may carry.
const Precision = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPrecision     = errors.New("amount has more than 2 decimal places")
)

// Cents is a signed amount in hundredths of the currency unit.
type Cents int64

// Parse converts a decimal string ("12.34", "12,34", "7") to cents.
// Amounts with more than two fractional digits are rejected rather than
// rounded, so a client never silently loses a fraction of a cent.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// ParsePositive is Parse restricted to amounts greater than zero.
func ParsePositive(s string) (Cents, error) {
	c, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if c <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return c, nil
}

// FromDecimal converts d to cents, failing when d has sub-cent digits or
// does not fit in an int64.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Shift(Precision)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrPrecision, d.String())
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Cents(bi.Int64()), nil
}

// Decimal returns c as a decimal with two fractional digits.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -Precision)
}

// String formats c with exactly two decimals, e.g. "1000.00" or "-0.05".
func (c Cents) String() string {
	return c.Decimal().StringFixed(Precision)
}

// Abs returns the absolute value of c.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Sum adds up amounts.
func Sum(amounts ...Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}
