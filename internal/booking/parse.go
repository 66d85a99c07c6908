package booking

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDateTime means the requested time could not be understood in
// any supported shape.
var ErrUnparseableDateTime = errors.New("booking: could not parse requested date/time")

// DisplayFormat is the canonical human-readable slot format. Everything the
// engine shows to a caller uses it, and ParseRequestedDateTime accepts it
// back verbatim, so a caller can repeat a quoted slot and land on the same
// instant.
const DisplayFormat = "Monday, January 2, 2006 at 3:04 PM"

// datetimeFormats is tried in order before falling back to natural-language
// parsing. Date-only entries default the time separately.
var datetimeFormats = []string{
	DisplayFormat,
	"January 2, 2006 at 3:04 PM",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"01/02/2006 3:04 PM",
}

var dateOnlyFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
}

// defaultHour is the assumed appointment time when the caller gives only a
// date: first slot of the clinic morning.
const defaultHour = 9

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// e.g. "April 1", "Apr 1st at 2 pm", "april 1 at 14:30"
var naturalDate = regexp.MustCompile(`(?i)\b([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
var naturalTime = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// FormatDateTime renders an instant in the canonical display format.
func FormatDateTime(t time.Time) string {
	return t.Format(DisplayFormat)
}

// ParseRequestedDateTime turns a caller's spoken or typed time request into a
// concrete instant in now's location.
//
// Explicit formats are tried first. Failing those, a month-name phrase like
// "April 1" or "Dec 3rd at 2 pm" is accepted: the year is the current one
// unless that month has already passed, in which case it rolls to next year,
// and a missing time defaults to 9:00 AM.
func ParseRequestedDateTime(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrUnparseableDateTime
	}
	loc := now.Location()

	for _, layout := range datetimeFormats {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range dateOnlyFormats {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), defaultHour, 0, 0, 0, loc), nil
		}
	}

	m := naturalDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, ErrUnparseableDateTime
	}
	month, ok := months[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, ErrUnparseableDateTime
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, ErrUnparseableDateTime
	}

	year := now.Year()
	if month < now.Month() || (month == now.Month() && day < now.Day()) {
		year++
	}

	hour, minute := defaultHour, 0
	if tm := naturalTime.FindStringSubmatch(text); tm != nil {
		hour, _ = strconv.Atoi(tm[1])
		if tm[2] != "" {
			minute, _ = strconv.Atoi(tm[2])
		}
		switch strings.ToLower(tm[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 {
			return time.Time{}, ErrUnparseableDateTime
		}
	}

	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}
