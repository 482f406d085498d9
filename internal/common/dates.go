package common

import (
	"strings"
	"time"
)

// Listing APIs publish "dd/mm/yyyy HH:MM"; cache keys use ISO dates.
var dateLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02",
}

// NormalizeDate converts a release time to YYYY-MM-DD.
// It returns "" when the input matches none of the known layouts.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	// ISO timestamps with a time component
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// Days converts a day count to a duration
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
