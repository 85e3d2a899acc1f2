package transform

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNotANumber is returned by ParseAmount for input that contains no parsable
// amount. Callers treat it as a row-skip signal, never as a failure.
var ErrNotANumber = errors.New("not a number")

// ParseAmount parses a localized amount string into a signed decimal.
//
// Handles the conventions seen across bank exports: grouping by space or
// non-breaking space ("1 234,56"), decimal comma, point-grouped comma-decimal
// ("1.234,56"), currency suffixes ("12,50 EUR") and a leading or trailing
// minus sign ("12,50-").
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}

	if strings.Contains(s, ",") {
		// Decimal comma convention: any points left are grouping separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	// Discard everything that is not a digit or decimal point, keeping the
	// minus sign whether it leads or trails ("+" prefixes and currency
	// symbols are dropped).
	negative := strings.HasPrefix(strings.TrimLeft(s, "+"), "-") || strings.HasSuffix(s, "-")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, ErrNotANumber
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
