package nlu

import (
	"testing"
	"time"
)

// 2025-06-16 is a Monday; 10:00 in Kolkata.
func referenceNow(t *testing.T) time.Time {
	t.Helper()
	loc := LoadLocation(DefaultTimeZone)
	return time.Date(2025, 6, 16, 10, 0, 0, 0, loc)
}

func TestResolveTomorrowIsDeterministic(t *testing.T) {
	r := NewTimeResolver(nil)
	now := referenceNow(t)

	first := r.Resolve("tomorrow please", now)
	second := r.Resolve("tomorrow please", now)
	if first.Date != second.Date {
		t.Fatalf("expected identical dates, got %s and %s", first.Date, second.Date)
	}
	if first.Date != "2025-06-17" {
		t.Fatalf("unexpected date: %s", first.Date)
	}
	if first.Success {
		t.Fatalf("expected no time to be extracted")
	}
	if first.Reason != "Could not extract specific time" {
		t.Fatalf("unexpected reason: %q", first.Reason)
	}
}

func TestResolveSameWeekdayAdvancesAWeek(t *testing.T) {
	r := NewTimeResolver(nil)
	now := referenceNow(t)

	res := r.Resolve("can I come on monday", now)
	if res.Date != "2025-06-23" {
		t.Fatalf("expected next monday, got %s", res.Date)
	}
}

func TestResolveDates(t *testing.T) {
	r := NewTimeResolver(nil)
	now := referenceNow(t)

	tests := []struct {
		text string
		want string
	}{
		{"today at 4pm", "2025-06-16"},
		{"tomorrow", "2025-06-17"},
		{"sometime next week", "2025-06-23"},
		{"wednesday morning", "2025-06-18"},
		{"sunday", "2025-06-22"},
		{"whenever works", "2025-06-16"},
		{"today or tomorrow", "2025-06-16"},
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.text, now).Date; got != tt.want {
			t.Errorf("Resolve(%q) date = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestResolveClock(t *testing.T) {
	r := NewTimeResolver(nil)
	now := referenceNow(t)

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"tomorrow at 3pm", "15:00", true},
		{"tomorrow at 10:30 am", "10:30", true},
		{"12pm", "12:00", true},
		{"12am", "00:00", true},
		{"at 3", "15:00", true},
		{"at 8 o'clock", "20:00", true},
		{"at 9", "09:00", true},
		{"at 11:15", "11:15", true},
		{"at 0", "00:00", true},
		{"no time here", "", false},
		{"at 99", "", false},
		{"at 10:75", "", false},
	}
	for _, tt := range tests {
		res := r.Resolve(tt.text, now)
		if res.Success != tt.ok {
			t.Errorf("Resolve(%q) success = %v, want %v", tt.text, res.Success, tt.ok)
			continue
		}
		if res.Time != tt.want {
			t.Errorf("Resolve(%q) time = %q, want %q", tt.text, res.Time, tt.want)
		}
	}
}

func TestResolveConvertsToUTC(t *testing.T) {
	r := NewTimeResolver(nil)
	now := referenceNow(t)

	res := r.Resolve("book doctor smith tomorrow at 3pm", now)
	if !res.Success || res.Instant == nil {
		t.Fatalf("expected success, got %+v", res)
	}
	want := time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC)
	if !res.Instant.Equal(want) {
		t.Fatalf("instant = %s, want %s", res.Instant, want)
	}
	if res.Instant.Location() != time.UTC {
		t.Fatalf("expected UTC instant, got %s", res.Instant.Location())
	}
}

func TestResolveUsesLocalDateNearMidnight(t *testing.T) {
	r := NewTimeResolver(nil)
	// 20:00 UTC is already the next day in Kolkata.
	now := time.Date(2025, 6, 16, 20, 0, 0, 0, time.UTC)

	if got := r.Resolve("today", now).Date; got != "2025-06-17" {
		t.Fatalf("expected local date 2025-06-17, got %s", got)
	}
}
