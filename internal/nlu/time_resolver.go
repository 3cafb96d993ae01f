package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/healthflow/internal/domain"
)

const (
	// DateLayout is the canonical date format used across tools and context.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical time-of-day format.
	ClockLayout = "15:04"

	reasonNoTime = "Could not extract specific time"
)

var (
	explicitTimePattern = regexp.MustCompile(`(\d{1,2})\s*(?::(\d{2}))?\s*(am|pm)`)
	casualTimePattern   = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(?:o'?clock)?(?:\s*(am|pm))?`)

	weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// HeuristicTimeResolver resolves time expressions with keyword and regex rules.
type HeuristicTimeResolver struct {
	loc *time.Location
}

// NewTimeResolver creates a resolver anchored to loc.
func NewTimeResolver(loc *time.Location) *HeuristicTimeResolver {
	if loc == nil {
		loc = LoadLocation(DefaultTimeZone)
	}
	return &HeuristicTimeResolver{loc: loc}
}

var _ TimeResolver = (*HeuristicTimeResolver)(nil)

// Location returns the zone the resolver works in.
func (r *HeuristicTimeResolver) Location() *time.Location {
	return r.loc
}

// Resolve extracts a date and, when present, a time of day from text.
func (r *HeuristicTimeResolver) Resolve(text string, now time.Time) domain.TimeResolution {
	lower := strings.ToLower(text)
	local := now.In(r.loc)
	date := resolveDate(lower, local)

	res := domain.TimeResolution{Date: date.Format(DateLayout)}

	hour, minute, ok := extractClock(lower)
	if !ok {
		res.Reason = reasonNoTime
		return res
	}

	at := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, r.loc).UTC()
	res.Instant = &at
	res.Time = at.In(r.loc).Format(ClockLayout)
	res.Success = true
	return res
}

// resolveDate applies the date keywords in priority order and returns local midnight.
func resolveDate(lower string, local time.Time) time.Time {
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())

	switch {
	case strings.Contains(lower, "today"):
		return today
	case strings.Contains(lower, "tomorrow"):
		return today.AddDate(0, 0, 1)
	case strings.Contains(lower, "next week"):
		return today.AddDate(0, 0, 7)
	}

	for i, day := range weekdays {
		if !strings.Contains(lower, day) {
			continue
		}
		daysAhead := i - mondayIndex(today.Weekday())
		if daysAhead <= 0 {
			daysAhead += 7
		}
		return today.AddDate(0, 0, daysAhead)
	}
	return today
}

// mondayIndex maps time.Weekday onto a Monday = 0 scale.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func extractClock(lower string) (int, int, bool) {
	for _, pattern := range []*regexp.Regexp{explicitTimePattern, casualTimePattern} {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if hour, minute, ok := toClock(m[1], m[2], m[3]); ok {
			return hour, minute, true
		}
	}
	return 0, 0, false
}

// toClock applies the am/pm rules. Without a marker, hours 1 to 8 are afternoon.
func toClock(hourText, minuteText, period string) (int, int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, 0, false
	}
	minute := 0
	if minuteText != "" {
		if minute, err = strconv.Atoi(minuteText); err != nil {
			return 0, 0, false
		}
	}

	switch period {
	case "pm":
		if hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 8 {
			hour += 12
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
