package transform

import (
	"strings"
	"time"
)

// dayFirstLayouts are the day-first date shapes seen in French bank exports,
// tried in order.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// NormalizeDate converts day-first textual dates to ISO YYYY-MM-DD. Values
// already in ISO form pass through unchanged. Unparseable strings are returned
// as-is: callers must treat a non-ISO result as a parse failure signal.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if IsISODate(s) {
		return s
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ParseDateLayout parses s with an explicit layout (from a user-confirmed
// column mapping) and returns the ISO form. Unlike NormalizeDate it does not
// guess: the caller has already chosen the format.
func ParseDateLayout(s, layout string) (string, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
