// Package core holds the domain model: record types, validation rules,
// monetary amount parsing and the dashboard aggregation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinAmount is the smallest monetary value the system accepts.
var MinAmount = decimal.New(1, -2) // 0.01

// ParseAmount converts a decimal string into a monetary value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Signs are rejected: amounts are always
// entered positive, the transaction type carries the direction. Returns
// ErrInvalidAmount for malformed input and anything below 0.01.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.LessThan(MinAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders a monetary value with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
