// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser used by the normalizer. Amounts are
// kept as exact decimals so that grouped sums always add up to the total.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user-entered decimal string into a non-negative
// amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading plus sign. Anything that is not a plain decimal number is
// rejected, including exponents, thousands separators and negative values.
//
// Examples:
//
//	ParseAmount("12.5")  -> 12.5, nil
//	ParseAmount("12,50") -> 12.50, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-3")    -> error
//	ParseAmount("12abc") -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if r > unicode.MaxASCII || !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		parts[0] = "0"
	}
	s = parts[0]
	if len(parts) == 2 && parts[1] != "" {
		s += "." + parts[1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
