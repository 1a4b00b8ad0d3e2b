package utils

import (
	"fmt"
	"strings"
	"time"
)

// clockLayout matches the 12-hour strings the app stores, e.g. "8:00 AM" or "08:00 AM".
const clockLayout = "3:04 PM"

// ParseClock parses a 12-hour clock string into hours and minutes since midnight.
func ParseClock(clock string) (hour, minute int, err error) {
	t, err := time.Parse(clockLayout, strings.ToUpper(strings.TrimSpace(clock)))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock string %q: %w", clock, err)
	}
	return t.Hour(), t.Minute(), nil
}

// FormatClock renders a time as the stored 12-hour clock string.
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}

// TriggerInstant combines a start date with a clock string into the absolute
// instant a reminder should fire, in the start date's location.
func TriggerInstant(startDate time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		hour, minute, 0, 0, startDate.Location()), nil
}

// ClockMinutes converts a clock string to minutes since midnight, for sorting
// schedules by time of day. Malformed strings sort first.
func ClockMinutes(clock string) int {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return -1
	}
	return hour*60 + minute
}
