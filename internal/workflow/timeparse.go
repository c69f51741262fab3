package workflow

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultHearingHour   = 9
	hearingEventDuration = 2 * time.Hour
)

// parseHearingStart combines a hearing date with an optional dictated time.
// Accepted time forms are 24-hour "HH:MM" and 12-hour "H:MM AM/PM"; anything
// else, including no time at all, defaults to 09:00 local.
func parseHearingStart(dateStr, timeStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse hearing date %q: %w", dateStr, err)
	}

	hour, minute := defaultHearingHour, 0
	if t, ok := parseClock(timeStr); ok {
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local), nil
}

func parseClock(timeStr string) (time.Time, bool) {
	s := strings.ToUpper(strings.TrimSpace(timeStr))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func hearingEventEnd(start time.Time) time.Time {
	return start.Add(hearingEventDuration)
}
