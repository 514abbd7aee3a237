// Package duration parses human-readable durations such as "7d" or "2w"
// alongside Go's own format ("30s", "5m", "1h30m").
//
// Used for vacuum --older-than, the processor lease and schedule, and the
// I/O timeout in config.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var dayWeek = regexp.MustCompile(`^(\d+)([dw])$`)

const day = 24 * time.Hour

// Parse parses "Nd" (days), "Nw" (weeks) or any time.ParseDuration string.
// Negative durations are rejected.
func Parse(s string) (time.Duration, error) {
	if m := dayWeek.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number: %w", err)
		}
		if m[2] == "w" {
			return time.Duration(n) * 7 * day, nil
		}
		return time.Duration(n) * day, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use 30s, 5m, 7d or 2w)", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}

// Format renders d in the largest whole unit Parse accepts.
func Format(d time.Duration) string {
	switch {
	case d >= 7*day && d%(7*day) == 0:
		return strconv.FormatInt(int64(d/(7*day)), 10) + "w"
	case d >= day && d%day == 0:
		return strconv.FormatInt(int64(d/day), 10) + "d"
	}
	return d.String()
}
