// Package core holds the expense catalog and the plain data types shared by
// the ledger, storage and presentation layers.
//
// This file contains helpers for turning user-entered amount text into
// numbers and numbers back into display strings.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a positive amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Zero,
// negative and non-numeric input is rejected with ErrInvalidAmount.
//
// Examples:
//   ParseAmount("12.34") -> 12.34, nil
//   ParseAmount("12,5")  -> 12.5, nil
//   ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders an amount with two decimals, the way tables show it.
// Undefined and infinite amounts render as "NaN".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NaN"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
