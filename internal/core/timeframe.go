package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NormalizeTimeframe maps a raw timeframe key to its display label.
// Bare numbers are minutes ("240" -> "4h", "1440" -> "D"); letter suffixes
// are canonicalised ("4H" -> "4h", "1D" -> "D", "1W" -> "W").
func NormalizeTimeframe(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return minutesLabel(n)
	}

	unit := s[len(s)-1:]
	num := s[:len(s)-1]
	n := 1
	if num != "" {
		v, err := strconv.Atoi(num)
		if err != nil || v <= 0 {
			return s
		}
		n = v
	}

	switch unit {
	case "s", "S":
		return fmt.Sprintf("%ds", n)
	case "m":
		return minutesLabel(n)
	case "h", "H":
		return minutesLabel(n * 60)
	case "D", "d":
		return multiple(n, "D")
	case "W", "w":
		return multiple(n, "W")
	case "M":
		return multiple(n, "M")
	default:
		return s
	}
}

func minutesLabel(n int) string {
	switch {
	case n%1440 == 0:
		return multiple(n/1440, "D")
	case n%60 == 0:
		return fmt.Sprintf("%dh", n/60)
	default:
		return fmt.Sprintf("%dm", n)
	}
}

func multiple(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return fmt.Sprintf("%d%s", n, unit)
}

// TimeframeDuration returns the interval length of a label so cells can be
// ordered from shortest to longest. Unknown labels sort last.
func TimeframeDuration(label string) time.Duration {
	l := NormalizeTimeframe(label)
	if l == "" {
		return time.Duration(math.MaxInt64)
	}

	unit := l[len(l)-1:]
	n := 1
	if len(l) > 1 {
		v, err := strconv.Atoi(l[:len(l)-1])
		if err != nil {
			return time.Duration(math.MaxInt64)
		}
		n = v
	}

	d := time.Duration(n)
	switch unit {
	case "s":
		return d * time.Second
	case "m":
		return d * time.Minute
	case "h":
		return d * time.Hour
	case "D":
		return d * 24 * time.Hour
	case "W":
		return d * 7 * 24 * time.Hour
	case "M":
		return d * 30 * 24 * time.Hour
	default:
		return time.Duration(math.MaxInt64)
	}
}
