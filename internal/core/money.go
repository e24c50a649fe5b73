// Package core provides money parsing and handling utilities.
//
// Amounts travel as float64 (the data store's representation) and are
// converted to decimals for any arithmetic, so sums and rounding stay stable
// to the cent.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to a positive amount
// rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional leading "$", and comma thousands separators when a dot is also
// present (1,234.50). Rounding is half away from zero on the third decimal.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1,234.50") -> 1234.5, nil
//	ParseAmount("12.345")   -> 12.35, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// toDecimal converts a stored amount using its shortest decimal
// representation, so 12.5 becomes exactly 12.5.
func toDecimal(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount)
}

// AverageAmount returns total/count rounded to cents, or 0 for count 0.
func AverageAmount(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return toDecimal(total).Div(decimal.NewFromInt(int64(count))).Round(2).InexactFloat64()
}

// FixedAmount renders an amount with exactly two decimals and no grouping,
// e.g. 1234.5 -> "1234.50".
func FixedAmount(amount float64) string {
	return toDecimal(amount).StringFixed(2)
}
