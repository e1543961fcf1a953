package resolve

import (
	"iter"
	"time"
)

// Window is a half-open [Start, End) time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows splits [now-span, now] into consecutive windows of length interval,
// yielding windows until the next start would be after now. A non-positive
// interval yields a single window covering the whole span. Windows are
// produced on demand, so a caller that stops early never computes the rest.
func Windows(now time.Time, span, interval time.Duration) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		start := now.Add(-span)
		if interval <= 0 {
			yield(Window{Start: start, End: now})
			return
		}

		for !start.After(now) {
			if !yield(Window{Start: start, End: start.Add(interval)}) {
				return
			}
			start = start.Add(interval)
		}
	}
}
