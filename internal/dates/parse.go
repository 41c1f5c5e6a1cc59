package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Matches: "2h ago", "30m ago", "1d ago", "2w ago", "1mo ago"
var relativeAgoRegex = regexp.MustCompile(`^(\d+)(mo|w|d|h|m)\s*ago$`)

// Matches a trailing clock token like "11:20" or "09:30:15".
var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// Parse parses a normalized date/time expression relative to now,
// anchored to now's location. Supported date forms: "today",
// "yesterday", "tomorrow", weekday names, "Nd ago" style relative
// offsets, "2006-01-02", RFC3339, and "2 may" / "may 2" month-name
// forms (nearest matching year in the past, like a human means
// "2 apr" said in June). Any date form may be followed by an "HH:MM"
// clock token, typically produced by Normalize.
func Parse(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}

	// RFC3339 carries its own clock and zone; short-circuit before
	// splitting on spaces.
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	input := strings.ToLower(raw)

	// Peel off a trailing clock token, if any.
	datePart := input
	clock := ""
	if idx := strings.LastIndexByte(input, ' '); idx >= 0 {
		if clockRegex.MatchString(input[idx+1:]) {
			datePart = strings.TrimSpace(input[:idx])
			clock = input[idx+1:]
		}
	}

	day, err := parseDatePart(datePart, now)
	if err != nil {
		return time.Time{}, err
	}

	if clock == "" {
		return day, nil
	}
	return combineClock(day, clock)
}

func parseDatePart(datePart string, now time.Time) (time.Time, error) {
	switch datePart {
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	case "today":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now).AddDate(0, 0, 1), nil
	}

	if t, ok := parseWeekday(datePart, now); ok {
		return t, nil
	}

	if matches := relativeAgoRegex.FindStringSubmatch(datePart); len(matches) == 3 {
		value, err := strconv.Atoi(matches[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid relative date %q", datePart)
		}
		return applyRelative(now, value, matches[2])
	}

	if t, err := time.ParseInLocation("2006-01-02", datePart, now.Location()); err == nil {
		return startOfDay(t), nil
	}

	if t, ok := parseDayMonth(datePart, now); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date expression %q", datePart)
}

func combineClock(day time.Time, clock string) (time.Time, error) {
	matches := clockRegex.FindStringSubmatch(clock)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	second := 0
	if matches[3] != "" {
		second, _ = strconv.Atoi(matches[3])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, day.Location()), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseWeekday(expr string, now time.Time) (time.Time, bool) {
	input := strings.TrimSpace(expr)
	if input == "" {
		return time.Time{}, false
	}

	last := false
	if strings.HasPrefix(input, "last ") {
		last = true
		input = strings.TrimSpace(strings.TrimPrefix(input, "last "))
	} else if strings.HasPrefix(input, "this ") {
		input = strings.TrimSpace(strings.TrimPrefix(input, "this "))
	}

	weekday, ok := weekdayMap[input]
	if !ok {
		return time.Time{}, false
	}

	// A bare weekday names the most recent such day (crawling history
	// looks backwards), "last monday" forces a full week back from today.
	base := startOfDay(now)
	delta := (int(base.Weekday()) - int(weekday) + 7) % 7
	if last && delta == 0 {
		delta = 7
	}

	return base.AddDate(0, 0, -delta), true
}

var weekdayMap = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"weds":      time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

var monthMap = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseDayMonth handles "1 may", "may 1", "1 may 2024", "may 1 2024".
// Without an explicit year the nearest occurrence not after today is
// used, so "28 dec" typed in January means last December.
func parseDayMonth(expr string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(expr)
	if len(fields) < 2 || len(fields) > 3 {
		return time.Time{}, false
	}

	var day int
	var month time.Month
	var ok bool

	if month, ok = monthMap[fields[0]]; ok {
		d, err := strconv.Atoi(fields[1])
		if err != nil {
			return time.Time{}, false
		}
		day = d
	} else if month, ok = monthMap[fields[1]]; ok {
		d, err := strconv.Atoi(fields[0])
		if err != nil {
			return time.Time{}, false
		}
		day = d
	} else {
		return time.Time{}, false
	}
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	year := now.Year()
	explicitYear := false
	if len(fields) == 3 {
		y, err := strconv.Atoi(fields[2])
		if err != nil || y < 1000 {
			return time.Time{}, false
		}
		year = y
		explicitYear = true
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if !explicitYear && t.After(startOfDay(now)) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}

func applyRelative(now time.Time, value int, unit string) (time.Time, error) {
	switch unit {
	case "mo":
		return now.AddDate(0, -value, 0), nil
	case "w":
		return now.Add(-time.Duration(value) * 7 * 24 * time.Hour), nil
	case "d":
		return now.Add(-time.Duration(value) * 24 * time.Hour), nil
	case "h":
		return now.Add(-time.Duration(value) * time.Hour), nil
	case "m":
		return now.Add(-time.Duration(value) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("invalid relative date unit %q", unit)
	}
}
