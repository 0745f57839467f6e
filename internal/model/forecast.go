package model

import (
	"time"

	"github.com/sandeepkv93/trf/internal/timefmt"
)

type Trend string

const (
	TrendNone Trend = ""
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

func (t Trend) Glyph() string {
	switch t {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	case TrendFlat:
		return "→"
	default:
		return ""
	}
}

// Forecast is derived from a tracker's history. Pointer fields are nil when
// the history is too short to produce them.
type Forecast struct {
	LastCompletion  *CompletionEvent
	NumCompletions  int
	Intervals       []time.Duration
	AverageInterval *time.Duration
	Spread          time.Duration
	Trend           Trend
	NextExpected    *time.Time
	Early           *time.Time
	Late            *time.Time
}

func (f Forecast) NumIntervals() int {
	return len(f.Intervals)
}

// Avg renders the average interval with its trend glyph, e.g. "7d12h↑".
func (f Forecast) Avg() string {
	if f.AverageInterval == nil {
		return ""
	}
	return timefmt.FormatDuration(*f.AverageInterval, true) + f.Trend.Glyph()
}

// ScaledSpread is the half-width of the forecast window.
func (f Forecast) ScaledSpread(eta float64) time.Duration {
	return time.Duration(eta * float64(f.Spread))
}

// ComputeForecast expects history sorted ascending by timestamp. Only the
// later event's adjustment shifts an interval.
func ComputeForecast(history []CompletionEvent, eta float64) Forecast {
	if len(history) == 0 {
		return Forecast{}
	}

	last := history[len(history)-1]
	out := Forecast{
		LastCompletion: &last,
		NumCompletions: len(history),
		Intervals:      make([]time.Duration, 0, len(history)-1),
	}
	for i := 0; i+1 < len(history); i++ {
		next := history[i+1]
		out.Intervals = append(out.Intervals, next.At.Add(next.Adjustment).Sub(history[i].At))
	}
	n := len(out.Intervals)
	if n == 0 {
		return out
	}

	var average time.Duration
	if n == 1 {
		average = out.Intervals[0]
	} else {
		var total time.Duration
		for _, iv := range out.Intervals {
			total += iv
		}
		average = total / time.Duration(n)
	}
	out.AverageInterval = &average

	expected := last.At.Add(average)
	out.NextExpected = &expected

	switch delta := out.Intervals[n-1] - average; {
	case delta > 0:
		out.Trend = TrendUp
	case delta < 0:
		out.Trend = TrendDown
	default:
		out.Trend = TrendFlat
	}

	if n >= 2 {
		var deviation time.Duration
		for _, iv := range out.Intervals {
			diff := iv - average
			if diff < 0 {
				diff = -diff
			}
			deviation += diff
		}
		out.Spread = deviation / time.Duration(n)
	}

	half := out.ScaledSpread(eta)
	early := expected.Add(-half)
	late := expected.Add(half)
	out.Early = &early
	out.Late = &late
	return out
}
