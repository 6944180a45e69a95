package timefmt

import (
	"fmt"
	"time"
)

// Relative describes how long before reference t occurred, e.g. "3 days ago".
// A zero reference means now.
func Relative(t, reference time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	t = t.In(reference.Location())
	if !t.Before(reference) {
		return "just now"
	}

	diff := reference.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	}
	days := int(diff.Hours() / 24)
	if days < 30 {
		return plural(days, "day") + " ago"
	}
	if t.Year() == reference.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2 2006")
}

// Elapsed renders a duration the way a build log would: 42s, 3m05s, 1h02m.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
