package timefmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const Day = 24 * time.Hour

var (
	periodPattern = regexp.MustCompile(`([+-]?)(\d+)\s*([a-z]+)`)
	unitMap       = map[string]time.Duration{
		"d":       Day,
		"day":     Day,
		"days":    Day,
		"h":       time.Hour,
		"hour":    time.Hour,
		"hours":   time.Hour,
		"m":       time.Minute,
		"minute":  time.Minute,
		"minutes": time.Minute,
		"s":       time.Second,
		"second":  time.Second,
		"seconds": time.Second,
	}
)

// ParseDuration sums signed number+unit tokens such as "2d-3h5m" or
// "1 day 2 hours". Each token carries its own sign; components are not
// carried across unit boundaries before summing.
func ParseDuration(text string) (time.Duration, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	matches := periodPattern.FindAllStringSubmatch(lower, -1)
	if len(matches) == 0 {
		return 0, &ParseError{
			Kind:   KindInvalidFormat,
			Input:  text,
			Reason: fmt.Sprintf("invalid period string '%s'", text),
		}
	}

	total := time.Duration(0)
	for _, m := range matches {
		base, ok := unitMap[m[3]]
		if !ok {
			return 0, &ParseError{
				Kind:   KindInvalidUnit,
				Input:  text,
				Reason: fmt.Sprintf("invalid period argument: %s", m[3]),
			}
		}
		value, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, &ParseError{
				Kind:   KindInvalidFormat,
				Input:  text,
				Reason: fmt.Sprintf("invalid period value '%s': %v", m[2], err),
			}
		}
		if value > math.MaxInt64/int64(base) {
			return 0, &ParseError{
				Kind:   KindInvalidFormat,
				Input:  text,
				Reason: fmt.Sprintf("period value out of range: %s%s", m[2], m[3]),
			}
		}
		step := time.Duration(value) * base
		if m[1] == "-" {
			step = -step
		}
		if (step > 0 && total > math.MaxInt64-step) || (step < 0 && total < math.MinInt64-step) {
			return 0, &ParseError{
				Kind:   KindInvalidFormat,
				Input:  text,
				Reason: fmt.Sprintf("period out of range: %s", text),
			}
		}
		total += step
	}
	return total, nil
}

// FormatDuration renders d with minute granularity as "+1d2h3m". Negative
// values repeat the sign on every unit group ("-1d-2h") so the output parses
// back to the same value. In short mode the sign is dropped and only the
// first two unit groups are kept.
func FormatDuration(d time.Duration, short bool) string {
	negative := d < 0
	totalSeconds := int64(d / time.Second)
	if totalSeconds < 0 {
		totalSeconds = -totalSeconds
	}
	minutes := totalSeconds / 60
	if minutes == 0 {
		switch {
		case short:
			return "0m"
		case negative:
			return "-0m"
		}
		return "+0m"
	}
	days := minutes / (24 * 60)
	hours := (minutes / 60) % 24
	minutes = minutes % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}

	if short {
		if len(parts) > 2 {
			parts = parts[:2]
		}
		return strings.Join(parts, "")
	}
	if negative {
		return "-" + strings.Join(parts, "-")
	}
	return "+" + strings.Join(parts, "")
}
