package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// amountRegexp captures a signed number with optional thousands and decimal separators
	amountRegexp = regexp.MustCompile(`-?\d[\d.,]*`)
	// quantityRegexp accepts "3", "3x", "x3", "3 un"
	quantityRegexp = regexp.MustCompile(`^x?\s*(-?\d+)\s*(?:x|un|units?)?$`)
)

// NormalizeName is the history key for an item name: lower-cased and trimmed.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParsePrice extracts a decimal amount from free-form user input.
// Examples:
//
//	"3.50"       -> 3.50
//	"R$ 3,50"    -> 3.50
//	"1,200.50"   -> 1200.50
//	"1.200,50"   -> 1200.50
//	"1,200"      -> 1200
//
// A negative amount is returned as-is so the caller can reject it.
func ParsePrice(raw string) (decimal.Decimal, error) {
	match := amountRegexp.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero, fmt.Errorf("parse price %q: no amount found", raw)
	}

	normalized := normalizeSeparators(strings.TrimRight(match, ".,"))
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return d, nil
}

// ParseQuantity parses a whole item count. Zero and negatives are returned
// as-is so the caller can reject them.
func ParseQuantity(raw string) (int, error) {
	m := quantityRegexp.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if len(m) < 2 {
		return 0, fmt.Errorf("parse quantity %q: not a whole number", raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", raw, err)
	}
	return n, nil
}

// normalizeSeparators rewrites a number so "." is the only decimal separator.
// When both separators appear, the last one is the decimal mark. A single
// dot is always decimal; a single comma is decimal only when followed by one
// or two digits. Repeated separators group thousands.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 {
			return s
		}
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
