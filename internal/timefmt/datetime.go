package timefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	LongLayout    = "2006-01-02 15:04"
	CompactLayout = "060102T1504"
	DateLayout    = "06-01-02"
)

var clockLayouts = []string{"15:04", "3:04pm", "3:04 pm", "3pm", "3 pm"}

// yearFirstLayouts are tried before dateparse so two-digit years lead and the
// display formats read back.
var yearFirstLayouts = []string{
	LongLayout,
	CompactLayout,
	DateLayout,
	"06-01-02 15:04",
	"06/01/02",
	"06/01/02 15:04",
	"060102",
	"2006/01/02",
	"2006/01/02 15:04",
	"20060102T1504",
}

// ParseDatetime resolves "now" to the supplied instant, then tries the
// year-first layouts, then hands anything else to dateparse in now's zone.
// Dates are never read day-first. A bare clock time lands on now's date.
func ParseDatetime(text string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, &ParseError{
			Kind:   KindInvalidDatetime,
			Input:  text,
			Reason: "invalid datetime",
		}
	}
	if strings.EqualFold(trimmed, "now") {
		return now, nil
	}

	if clock, ok := parseClock(trimmed, now); ok {
		return clock, nil
	}
	for _, layout := range yearFirstLayouts {
		if tm, err := time.ParseInLocation(layout, trimmed, now.Location()); err == nil {
			return tm, nil
		}
	}
	parsed, err := dateparse.ParseIn(trimmed, now.Location())
	if err == nil {
		return parsed, nil
	}
	return time.Time{}, &ParseError{
		Kind:   KindInvalidDatetime,
		Input:  text,
		Reason: fmt.Sprintf("error parsing datetime: %s: %v", trimmed, err),
	}
}

func parseClock(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	for _, layout := range clockLayouts {
		tm, err := time.ParseInLocation(layout, lower, now.Location())
		if err != nil {
			continue
		}
		y, m, d := now.Date()
		return time.Date(y, m, d, tm.Hour(), tm.Minute(), 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// FormatDatetime returns "" for the zero time.
func FormatDatetime(dt time.Time, long bool) string {
	if dt.IsZero() {
		return ""
	}
	if long {
		return dt.Format(LongLayout)
	}
	return dt.Format(CompactLayout)
}

func FormatDate(dt time.Time) string {
	if dt.IsZero() {
		return ""
	}
	return dt.Format(DateLayout)
}
