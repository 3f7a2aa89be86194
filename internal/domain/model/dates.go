package model

import (
	"strings"
	"time"
)

// NormalizeDate reduces an oracle timestamp to YYYY-MM-DD. Era signs are
// stripped, time parts dropped, and zero month/day precision placeholders
// raised to 01. It reports false when the value is not a calendar date.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return "", false
	}
	if parts[1] == "00" {
		parts[1] = "01"
	}
	if parts[2] == "00" {
		parts[2] = "01"
	}
	s = strings.Join(parts, "-")
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", false
	}
	return s, true
}
