package location

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timePattern accepts "15:04", "3:04 PM", "3 PM" and "15".
var timePattern = regexp.MustCompile(`^\s*(\d{1,2})(?::(\d{2}))?\s*(?i:(am|pm))?\s*$`)

// displayFormat is how converted times are rendered for the user.
const displayFormat = "Jan 2, 2006, 3:04 PM"

// ZonedTime is one side of a conversion.
type ZonedTime struct {
	Time         string `json:"time"`
	Timezone     string `json:"timezone"`
	Abbreviation string `json:"abbreviation"`
}

// Conversion is the answer to a timezone conversion request.
type Conversion struct {
	Original  ZonedTime `json:"original"`
	Converted ZonedTime `json:"converted"`
	Message   string    `json:"message"`
}

// ConvertTime interprets timeStr on dateStr in fromTZ and expresses the same
// instant in toTZ. dateStr may be "2006-01-02", "today", "tomorrow",
// "yesterday" or empty (today). Timezones are IANA names. now anchors the
// relative date words.
func ConvertTime(timeStr, dateStr, fromTZ, toTZ string, now time.Time) (*Conversion, error) {
	fromLoc, err := time.LoadLocation(fromTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown source timezone %q", fromTZ)
	}
	toLoc, err := time.LoadLocation(toTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown target timezone %q", toTZ)
	}

	hours, minutes, err := parseClockTime(timeStr)
	if err != nil {
		return nil, err
	}

	year, month, day, err := resolveDate(dateStr, now.In(fromLoc))
	if err != nil {
		return nil, err
	}

	source := time.Date(year, month, day, hours, minutes, 0, 0, fromLoc)
	target := source.In(toLoc)

	return &Conversion{
		Original: ZonedTime{
			Time:         source.Format(displayFormat),
			Timezone:     fromTZ,
			Abbreviation: source.Format("MST"),
		},
		Converted: ZonedTime{
			Time:         target.Format(displayFormat),
			Timezone:     toTZ,
			Abbreviation: target.Format("MST"),
		},
		Message: fmt.Sprintf("%s in %s is %s in %s", timeStr, fromTZ, target.Format(displayFormat), toTZ),
	}, nil
}

// parseClockTime extracts hours and minutes from a 12- or 24-hour clock
// string.
func parseClockTime(timeStr string) (hours, minutes int, err error) {
	m := timePattern.FindStringSubmatch(timeStr)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time format %q: use \"3:04 PM\" or \"15:04\"", timeStr)
	}

	hours, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hours != 12 {
			hours += 12
		}
	case "am":
		if hours == 12 {
			hours = 0
		}
	}

	if hours > 23 || minutes > 59 {
		return 0, 0, fmt.Errorf("invalid time %q", timeStr)
	}
	return hours, minutes, nil
}

// resolveDate turns a date word or "2006-01-02" string into a calendar date.
// today anchors the relative words in the source timezone.
func resolveDate(dateStr string, today time.Time) (int, time.Month, int, error) {
	switch strings.ToLower(strings.TrimSpace(dateStr)) {
	case "", "today":
		y, m, d := today.Date()
		return y, m, d, nil
	case "tomorrow":
		y, m, d := today.AddDate(0, 0, 1).Date()
		return y, m, d, nil
	case "yesterday":
		y, m, d := today.AddDate(0, 0, -1).Date()
		return y, m, d, nil
	}

	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q: use \"2006-01-02\", \"today\", \"tomorrow\" or \"yesterday\"", dateStr)
	}
	y, m, d := parsed.Date()
	return y, m, d, nil
}
