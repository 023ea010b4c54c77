package web

import (
	"fmt"
	"time"
)

// HumanSize renders a byte count in binary units, matching the listing
// columns of common directory indexes.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	for i, suffix := range suffixes {
		value /= unit
		if value < unit || i == len(suffixes)-1 {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d B", n)
}

// HumanTime renders a timestamp as dd-MMM-yyyy HH:MM. Zero times render
// empty rather than the epoch.
func HumanTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02-Jan-2006 15:04")
}
