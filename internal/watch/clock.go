package watch

import (
	"strings"
	"time"
)

// clock layouts the source uses: "8:30am" most of the time, occasionally
// 24-hour "08:30".
var clockLayouts = []string{"3:04pm", "15:04"}

// parseClockText extracts a wall-clock time from a calendar time cell.
// Non-clock values ("All Day", "Tentative", "") return ok=false.
func parseClockText(s string) (hour, minute int, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// eventTimeToday anchors the event's display time to today's date in the
// reference location.
func eventTimeToday(timeText string, now time.Time) (time.Time, bool) {
	h, m, ok := parseClockText(timeText)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()), true
}
