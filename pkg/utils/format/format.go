// Package format holds small parsing and display helpers for durations and
// console text.
package format

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Truncate returns s truncated to max runes with a "..." suffix.
func Truncate(s string, max int) string {
	if max < 4 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

// JobDuration formats a time.Duration as a human-readable string
// (e.g. "3.2 seconds", "1.5 minutes", "2.0 hours").
func JobDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1f seconds", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
