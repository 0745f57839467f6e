package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/trf/internal/timefmt"
)

// MaxHistory bounds the completions kept per tracker; older ones are dropped.
const MaxHistory = 12

var (
	ErrInvalidIndex  = errors.New("model: invalid history index")
	ErrInvalidAction = errors.New("model: invalid history action")
	ErrEmptyName     = errors.New("model: tracker name is required")
)

type CompletionEvent = timefmt.Completion

type HistoryActionKind string

const (
	HistoryDelete  HistoryActionKind = "delete"
	HistoryReplace HistoryActionKind = "replace"
)

type HistoryAction struct {
	Kind  HistoryActionKind
	Event CompletionEvent
}

type Tracker struct {
	ID       int64
	Name     string
	Created  time.Time
	Modified time.Time
	History  []CompletionEvent

	eta      float64
	forecast Forecast
}

func NewTracker(id int64, name string, now time.Time, eta float64) (*Tracker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Tracker{
		ID:       id,
		Name:     name,
		Created:  now,
		Modified: now,
		History:  []CompletionEvent{},
		eta:      eta,
	}, nil
}

// RestoreTracker rebuilds a persisted tracker without touching Modified.
func RestoreTracker(id int64, name string, created, modified time.Time, history []CompletionEvent, eta float64) *Tracker {
	t := &Tracker{
		ID:       id,
		Name:     name,
		Created:  created,
		Modified: modified,
		History:  normalizeHistory(history),
		eta:      eta,
	}
	t.recompute()
	return t
}

func (t *Tracker) Forecast() Forecast {
	return t.forecast
}

func (t *Tracker) SpreadSensitivity() float64 {
	return t.eta
}

func (t *Tracker) RecordCompletion(ev CompletionEvent, now time.Time) {
	history := append(append([]CompletionEvent{}, t.History...), ev)
	t.History = normalizeHistory(history)
	t.touch(now)
}

// RecordCompletions replaces the whole history.
func (t *Tracker) RecordCompletions(events []CompletionEvent, now time.Time) {
	t.History = normalizeHistory(events)
	t.touch(now)
}

func (t *Tracker) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	t.Name = name
	t.touch(now)
	return nil
}

// EditHistoryEntry applies action to the zero-based entry index.
func (t *Tracker) EditHistoryEntry(index int, action HistoryAction, now time.Time) error {
	if index < 0 || index >= len(t.History) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index+1)
	}
	history := append([]CompletionEvent{}, t.History...)
	switch action.Kind {
	case HistoryDelete:
		history = append(history[:index], history[index+1:]...)
	case HistoryReplace:
		history[index] = action.Event
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action.Kind)
	}
	t.History = normalizeHistory(history)
	t.touch(now)
	return nil
}

// SetSpreadSensitivity changes η and recomputes the window. It is not an
// edit of the tracker, so Modified is left alone.
func (t *Tracker) SetSpreadSensitivity(eta float64) {
	t.eta = eta
	t.recompute()
}

func (t *Tracker) Clone() *Tracker {
	out := *t
	out.History = append([]CompletionEvent{}, t.History...)
	out.recompute()
	return &out
}

// DisplayName drops any "@" suffix.
func (t *Tracker) DisplayName() string {
	name, _, _ := strings.Cut(t.Name, "@")
	return strings.TrimSpace(name)
}

func (t *Tracker) FormatHistory() string {
	return timefmt.FormatCompletionList(t.History)
}

// Details is the multi-line inspect view.
func (t *Tracker) Details() string {
	f := t.forecast
	history := make([]string, 0, len(t.History))
	for _, c := range t.History {
		history = append(history, timefmt.FormatDatetime(c.At, false)+" "+timefmt.FormatDuration(c.Adjustment, false))
	}
	intervals := make([]string, 0, len(f.Intervals))
	for _, iv := range f.Intervals {
		intervals = append(intervals, timefmt.FormatDuration(iv, false))
	}

	var b strings.Builder
	fmt.Fprintf(&b, " name:        %s\n", t.Name)
	fmt.Fprintf(&b, " id:          %d\n", t.ID)
	fmt.Fprintf(&b, " created:     %s\n", timefmt.FormatDatetime(t.Created, false))
	fmt.Fprintf(&b, " modified:    %s\n", timefmt.FormatDatetime(t.Modified, false))
	fmt.Fprintf(&b, " completions: (%d)\n", f.NumCompletions)
	fmt.Fprintf(&b, "    %s\n", strings.Join(history, ", "))
	fmt.Fprintf(&b, " intervals:   (%d)\n", f.NumIntervals())
	fmt.Fprintf(&b, "    %s\n", strings.Join(intervals, ", "))
	fmt.Fprintf(&b, "    average:  %s\n", orTilde(f.Avg()))
	fmt.Fprintf(&b, "    spread:   %s\n", timefmt.FormatDuration(f.Spread, true))
	fmt.Fprintf(&b, " forecast:    %s\n", orTilde(formatPtr(f.NextExpected)))
	fmt.Fprintf(&b, "    early:    %s\n", orTilde(formatPtr(f.Early)))
	fmt.Fprintf(&b, "    late:     %s\n", orTilde(formatPtr(f.Late)))
	return b.String()
}

func (t *Tracker) touch(now time.Time) {
	t.Modified = now
	t.recompute()
}

func (t *Tracker) recompute() {
	t.forecast = ComputeForecast(t.History, t.eta)
}

func normalizeHistory(in []CompletionEvent) []CompletionEvent {
	out := append([]CompletionEvent{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}

func formatPtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return timefmt.FormatDatetime(*v, false)
}

func orTilde(s string) string {
	if s == "" {
		return "~"
	}
	return s
}
