// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting them back for reports.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string into a positive amount
// rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place.
// Returns an error for invalid formats, signed values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePercentage parses a pot percentage. Range checks are left to the
// allocation policy.
func ParsePercentage(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidPercentage
	}
	return d, nil
}

// ParseGoal parses a monthly plan figure. Empty means zero; the sign is
// checked by PlanGoals.Validate.
func ParseGoal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidGoal
	}
	return d, nil
}

// FormatEuros renders an amount the way reports display it (e.g. "€1200,50").
func FormatEuros(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	s = strings.Replace(s, ".", ",", 1)
	if d.IsNegative() {
		return "-€" + s
	}
	return "€" + s
}
