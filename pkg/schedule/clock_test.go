package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"morning", "08:05:00", 8*3600 + 5*60},
		{"no seconds", "8:05", 8*3600 + 5*60},
		{"single digit hour", "7:30:15", 7*3600 + 30*60 + 15},
		{"midnight", "00:00:00", 0},
		{"end of service day", "23:59:59", SecondsPerDay - 1},
		{"past midnight keeps hours", "24:10:00", SecondsPerDay + 10*60},
		{"late night", "26:15:00", 26*3600 + 15*60},
		{"surrounding whitespace", " 09:00:00\n", 9 * 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeOfDay_Malformed(t *testing.T) {
	for _, input := range []string{"", "8", "08:05:00:00", "aa:05:00", "08:xx", "08:60:00", "08:05:61", "-1:00:00", "08::00", "+8:00"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimeOfDay(input)
			require.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, input, perr.Input)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0, Normalize(0))
	assert.Equal(t, 0, Normalize(SecondsPerDay))
	assert.Equal(t, 600, Normalize(SecondsPerDay+600))
	assert.Equal(t, SecondsPerDay-1, Normalize(-1))
	assert.Equal(t, 3600, Normalize(3*SecondsPerDay+3600))
}

func TestSecondsOfDayAndClock(t *testing.T) {
	at := time.Date(2026, 3, 4, 23, 55, 30, 0, time.UTC)
	assert.Equal(t, 23*3600+55*60+30, SecondsOfDay(at))
	assert.Equal(t, "23:55", FormatClock(SecondsOfDay(at)))
	assert.Equal(t, "00:10", FormatClock(SecondsPerDay+600))
}

func TestDayBucket(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		loc = time.UTC
	}
	morning := time.Date(2026, 3, 4, 0, 1, 0, 0, loc)
	evening := time.Date(2026, 3, 4, 23, 59, 0, 0, loc)
	nextDay := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)

	assert.Equal(t, DayBucket(morning), DayBucket(evening))
	assert.NotEqual(t, DayBucket(evening), DayBucket(nextDay))
	assert.True(t, DayBucket(evening).Before(DayBucket(nextDay)))
	assert.False(t, DayBucket(nextDay).Before(DayBucket(evening)))
	assert.Equal(t, "2026-03-04", DayBucket(morning).String())
	assert.True(t, Day{}.IsZero())
	assert.True(t, DayBucket(time.Date(2025, 12, 31, 12, 0, 0, 0, loc)).Before(DayBucket(morning)))
}
