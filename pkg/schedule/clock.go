package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of one service day on the wall clock.
const SecondsPerDay = 24 * 60 * 60

// ParseError reports a time-of-day string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time of day %q: %s", e.Input, e.Reason)
}

// ParseTimeOfDay parses "H:MM:SS" or "H:MM" into seconds since midnight.
// GTFS hours may run past 23 for trips that continue after midnight; they are
// kept as-is and only folded back into the day by Normalize.
func ParseTimeOfDay(text string) (int, error) {
	s := strings.TrimSpace(text)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Input: text, Reason: "expected H:MM or H:MM:SS"}
	}

	var fields [3]int
	for i, p := range parts {
		if p == "" || strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return 0, &ParseError{Input: text, Reason: fmt.Sprintf("non-numeric component %q", p)}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, &ParseError{Input: text, Reason: err.Error()}
		}
		fields[i] = n
	}

	if fields[1] > 59 {
		return 0, &ParseError{Input: text, Reason: "minutes out of range"}
	}
	if fields[2] > 59 {
		return 0, &ParseError{Input: text, Reason: "seconds out of range"}
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], nil
}

// Normalize folds seconds into [0, SecondsPerDay).
func Normalize(seconds int) int {
	return ((seconds % SecondsPerDay) + SecondsPerDay) % SecondsPerDay
}

// SecondsOfDay returns the wall-clock seconds elapsed since midnight of t's day.
func SecondsOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}

// FormatClock renders seconds as HH:MM on the wall clock.
func FormatClock(seconds int) string {
	n := Normalize(seconds)
	return fmt.Sprintf("%02d:%02d", n/3600, n%3600/60)
}

// Day identifies a calendar day in the location of the timestamp it came from.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayBucket strips the time of day from t.
func DayBucket(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Before reports whether d is an earlier calendar day than other.
func (d Day) Before(other Day) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsZero reports whether d was never set.
func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
