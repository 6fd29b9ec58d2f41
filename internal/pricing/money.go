package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrInvalidInput is returned for amounts or quantities outside the valid domain.
var ErrInvalidInput = errors.New("pricing: invalid input")

// ApplyBps scales an amount by (10000-offBps)/10000 rounding half-up.
// offBps is the discount expressed in basis points, e.g. 1500 for 15% off.
func ApplyBps(amount Money, offBps int) Money {
	if amount <= 0 {
		return 0
	}
	keep := int64(10000 - offBps)
	if keep <= 0 {
		return 0
	}
	if keep >= 10000 {
		return amount
	}
	return (amount*keep + 5000) / 10000
}

// PercentOf returns bps/10000 of the amount, rounded half-up.
func PercentOf(amount Money, bps int) Money {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*int64(bps) + 5000) / 10000
}

// FormatMinor renders minor units as a decimal string with two fraction digits.
func FormatMinor(amount Money) string {
	return decimal.New(amount, -2).StringFixed(2)
}

// FormatAmount prefixes the rendered amount with a currency code, e.g. "IDR 229.25".
func FormatAmount(currency string, amount Money) string {
	code := strings.TrimSpace(currency)
	if code == "" {
		return FormatMinor(amount)
	}
	return code + " " + FormatMinor(amount)
}

// ParseMinor converts a decimal string such as "89.90" into minor units,
// rounding half-up beyond two fraction digits.
func ParseMinor(value string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, ErrInvalidInput)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
