package core

import (
	"fmt"
	"strings"
	"time"
)

// Layouts tried for dates that use neither slashes nor dashes. Kept small on
// purpose; exports in the wild are overwhelmingly one of the two delimited
// shapes.
var fallbackDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2 2006",
	"20060102",
}

// ParseTransactionDate interprets the textual date shapes found in exports:
//
//	contains "/"  ->  MM/DD/YYYY (US convention, deliberately not locale-aware)
//	contains "-"  ->  YYYY-MM-DD
//	otherwise     ->  a short list of common layouts
//
// The result must be a real calendar date; impossible dates such as 02/30
// fail rather than rolling over. The boolean is false when the text matches
// no accepted shape.
func ParseTransactionDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	switch {
	case strings.Contains(s, "/"):
		t, err := time.Parse("1/2/2006", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case strings.Contains(s, "-"):
		t, err := time.Parse("2006-1-2", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		for _, layout := range fallbackDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
}

// MonthKey formats the local calendar components of t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
