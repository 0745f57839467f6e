package timefmt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDurationSumsSignedTokens(t *testing.T) {
	got, err := ParseDuration("2d-3h5m")
	if err != nil {
		t.Fatalf("parse duration: %v", err)
	}
	want := 24*time.Hour + 21*time.Hour + 5*time.Minute
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if FormatDuration(got, false) != "+1d21h5m" {
		t.Fatalf("unexpected format: %q", FormatDuration(got, false))
	}
}

func TestParseDurationWordUnits(t *testing.T) {
	got, err := ParseDuration("1 day 2 hours 30 minutes")
	if err != nil {
		t.Fatalf("parse duration: %v", err)
	}
	if got != 26*time.Hour+30*time.Minute {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestParseDurationErrors(t *testing.T) {
	_, err := ParseDuration("3w")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != KindInvalidUnit {
		t.Fatalf("expected invalid unit, got %v", err)
	}

	_, err = ParseDuration("soon")
	if !errors.As(err, &pe) || pe.Kind != KindInvalidFormat {
		t.Fatalf("expected invalid format, got %v", err)
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse match")
	}
}

func TestFormatDurationShortAndZero(t *testing.T) {
	d := 3*24*time.Hour + 4*time.Hour + 5*time.Minute
	if got := FormatDuration(d, true); got != "3d4h" {
		t.Fatalf("unexpected short format: %q", got)
	}
	if got := FormatDuration(-d, true); got != "3d4h" {
		t.Fatalf("short format should drop sign: %q", got)
	}
	if got := FormatDuration(30*time.Second, false); got != "+0m" {
		t.Fatalf("unexpected zero format: %q", got)
	}
	if got := FormatDuration(0, true); got != "0m" {
		t.Fatalf("unexpected short zero format: %q", got)
	}
	if got := FormatDuration(-30*time.Second, false); got != "-0m" {
		t.Fatalf("expected sign kept under a minute, got %q", got)
	}
}

func TestParseDurationRejectsOverflow(t *testing.T) {
	for _, in := range []string{"99999999999d", "9223372036854775807h", "106751d 106751d", "-106751d-106751d"} {
		_, err := ParseDuration(in)
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Kind != KindInvalidFormat {
			t.Fatalf("%q: expected invalid format, got %v", in, err)
		}
	}
	if _, err := ParseDuration("106751d"); err != nil {
		t.Fatalf("largest whole day count should parse: %v", err)
	}
}

func TestDurationRoundTripToMinutePrecision(t *testing.T) {
	values := []time.Duration{
		5 * time.Minute,
		-90 * time.Minute,
		7 * 24 * time.Hour,
		-(2*24*time.Hour + 3*time.Hour + 4*time.Minute),
		13*time.Hour + 59*time.Minute,
	}
	for _, d := range values {
		text := FormatDuration(d, false)
		back, err := ParseDuration(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if back != d {
			t.Fatalf("round trip mismatch for %v: %q -> %v", d, text, back)
		}
	}
}

func TestParseDatetimeNowAndISO(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	got, err := ParseDatetime("  NOW ", now)
	if err != nil || !got.Equal(now) {
		t.Fatalf("expected now, got %v err=%v", got, err)
	}

	got, err = ParseDatetime("2026-01-08 09:15", now)
	if err != nil {
		t.Fatalf("parse iso: %v", err)
	}
	want := time.Date(2026, 1, 8, 9, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDatetimeYearFirst(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"26-02-09":       time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
		"26/03/04":       time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		"260209T1200":    time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		"26-02-09 08:45": time.Date(2026, 2, 9, 8, 45, 0, 0, time.UTC),
		"2026/02/09":     time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDatetime(in, now)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestParseDatetimeReadsDisplayFormats(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	dt := time.Date(2026, 2, 9, 7, 5, 0, 0, time.UTC)

	for _, long := range []bool{true, false} {
		text := FormatDatetime(dt, long)
		got, err := ParseDatetime(text, now)
		if err != nil || !got.Equal(dt) {
			t.Fatalf("%q: expected %v, got %v err=%v", text, dt, got, err)
		}
	}

	text := FormatDate(dt)
	got, err := ParseDatetime(text, now)
	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	if err != nil || !got.Equal(day) {
		t.Fatalf("%q: expected %v, got %v err=%v", text, day, got, err)
	}
}

func TestParseDatetimeClockUsesToday(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	got, err := ParseDatetime("3pm", now)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	if !got.Equal(time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected clock time: %v", got)
	}
}

func TestParseDatetimeInvalid(t *testing.T) {
	_, err := ParseDatetime("not a date", time.Now())
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != KindInvalidDatetime {
		t.Fatalf("expected invalid datetime, got %v", err)
	}
	if pe.Input != "not a date" {
		t.Fatalf("expected input to be kept, got %q", pe.Input)
	}
}

func TestParseCompletionDefaultsAdjustment(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	c, err := ParseCompletion("2026-03-01 08:00", now)
	if err != nil {
		t.Fatalf("parse completion: %v", err)
	}
	if c.Adjustment != 0 || c.At.Day() != 1 {
		t.Fatalf("unexpected completion: %#v", c)
	}

	c, err = ParseCompletion("now, -25m", now)
	if err != nil {
		t.Fatalf("parse completion: %v", err)
	}
	if c.Adjustment != -25*time.Minute || !c.At.Equal(now) {
		t.Fatalf("unexpected completion: %#v", c)
	}
}

func TestParseCompletionAggregatesBothFailures(t *testing.T) {
	_, err := ParseCompletion("garbage, 4x", time.Now())
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "error parsing datetime") || !strings.Contains(msg, "invalid period argument: x") {
		t.Fatalf("expected both failures in %q", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Fatalf("expected joined message, got %q", msg)
	}
}

func TestParseCompletionList(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	items, err := ParseCompletionList("2026-01-01 09:00, +0m; 2026-01-08 09:00, -1h", now)
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(items) != 2 || items[1].Adjustment != -time.Hour {
		t.Fatalf("unexpected items: %#v", items)
	}
	if got := FormatCompletionList(items); got != "2026-01-01 09:00, +0m; 2026-01-08 09:00, -1h" {
		t.Fatalf("unexpected formatted list: %q", got)
	}

	if _, err := ParseCompletionList("2026-01-01 09:00; nope; 2026-01-03, 2q", now); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestFormatDatetime(t *testing.T) {
	dt := time.Date(2026, 2, 9, 7, 5, 0, 0, time.UTC)
	if got := FormatDatetime(dt, true); got != "2026-02-09 07:05" {
		t.Fatalf("unexpected long format: %q", got)
	}
	if got := FormatDatetime(dt, false); got != "260209T0705" {
		t.Fatalf("unexpected compact format: %q", got)
	}
	if got := FormatDatetime(time.Time{}, true); got != "" {
		t.Fatalf("expected empty for zero time, got %q", got)
	}
}
