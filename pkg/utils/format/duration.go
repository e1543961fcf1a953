package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration converts seconds to "M:SS" or "H:MM:SS" display format.
func Duration(seconds float64) string {
	if seconds < 0 {
		return "0:00"
	}
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

var spanPair = regexp.MustCompile(`([0-9]+)([a-zA-Z]+)`)

var spanUnits = map[string]time.Duration{
	"s": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseSpan reads human spans such as "1week", "2d12h" or "90minutes".
// Every number+unit pair is summed; unknown units and stray text are ignored,
// so garbage input yields zero.
func ParseSpan(text string) time.Duration {
	var total time.Duration
	for _, m := range spanPair.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		unit, ok := spanUnits[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		total += time.Duration(n) * unit
	}
	return total
}
