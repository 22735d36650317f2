package bot

import (
	"regexp"
	"strconv"
	"time"
)

var deadlineRe = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})(?:\s+(\d{2}):(\d{2}))?$`)

// parseDeadline parses "DD.MM.YYYY" or "DD.MM.YYYY HH:mm" in local time,
// defaulting to midnight. Dates that do not exist on the calendar
// ("31.02.2024") are rejected.
func parseDeadline(input string) (time.Time, bool) {
	m := deadlineRe.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	// time.Date normalizes overflowing components, so a round-trip
	// mismatch means the input date was not real.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, false
	}
	return t, true
}
