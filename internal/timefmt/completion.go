package timefmt

import (
	"regexp"
	"strings"
	"time"
)

var completionSeparator = regexp.MustCompile(`,\s+`)

const completionListSeparator = "; "

// Completion is a parsed "datetime[, duration]" pair.
type Completion struct {
	At         time.Time
	Adjustment time.Duration
}

// ParseCompletion parses both halves even when the first one fails so the
// caller sees every problem at once.
func ParseCompletion(text string, now time.Time) (Completion, error) {
	parts := completionSeparator.Split(strings.TrimSpace(text), 2)
	dtPart := strings.TrimSpace(parts[0])
	if dtPart == "" {
		return Completion{}, &ParseError{
			Kind:   KindInvalidCompletion,
			Input:  text,
			Reason: "missing completion datetime",
		}
	}

	var errs []error
	at, err := ParseDatetime(dtPart, now)
	if err != nil {
		errs = append(errs, err)
	}

	var adjustment time.Duration
	if len(parts) > 1 {
		if tdPart := strings.TrimSpace(parts[1]); tdPart != "" {
			adjustment, err = ParseDuration(tdPart)
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return Completion{}, joinErrors(text, errs)
	}
	return Completion{At: at, Adjustment: adjustment}, nil
}

// ParseCompletionList parses "; "-separated completions and succeeds only if
// all of them do.
func ParseCompletionList(text string, now time.Time) ([]Completion, error) {
	out := make([]Completion, 0)
	var errs []error
	for _, segment := range strings.Split(text, completionListSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		c, err := ParseCompletion(segment, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, joinErrors(text, errs)
	}
	return out, nil
}

func FormatCompletion(c Completion) string {
	return FormatDatetime(c.At, true) + ", " + FormatDuration(c.Adjustment, false)
}

func FormatCompletionList(items []Completion) string {
	parts := make([]string, 0, len(items))
	for _, c := range items {
		parts = append(parts, FormatCompletion(c))
	}
	return strings.Join(parts, completionListSeparator)
}
