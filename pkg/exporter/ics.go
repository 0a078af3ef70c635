package exporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pthomas-44/nextbus/pkg/schedule"
)

// Timetable is the part of schedule.Manager the exporter reads.
type Timetable interface {
	Trips() []schedule.Trip
	Remaining(id schedule.TripID, from int) []schedule.Bus
}

// eventDuration is how long each arrival blocks in a calendar.
const eventDuration = time.Minute

// GenerateICS writes one event per bus still to come today, for every trip,
// and returns how many events were written.
func GenerateICS(tt Timetable, now time.Time, w io.Writer) (int, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//nextbus//board export//EN")

	// GTFS times count from noon minus 12h, which is not local midnight on DST days.
	base := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location()).Add(-12 * time.Hour)
	from := schedule.SecondsOfDay(now)
	title := cases.Title(language.French)

	count := 0
	for _, trip := range tt.Trips() {
		for _, bus := range tt.Remaining(trip.ID, from) {
			start := base.Add(time.Duration(bus.ScheduledSeconds) * time.Second)

			event := cal.AddEvent(fmt.Sprintf("%s-%s@nextbus", trip.ID, start.UTC().Format("20060102T150405Z")))
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetModifiedAt(now)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(eventDuration))
			event.SetSummary(summary(trip, title))

			description := fmt.Sprintf("Line %s, scheduled %s", trip.Tag, bus.Clock())
			if bus.IsLastOfDay {
				description += "\nLast bus of the day"
			}
			event.SetDescription(description)
			count++
		}
	}

	return count, cal.SerializeTo(w)
}

// summary renders "86 → Gorge de Loup" from the trip's display name. The
// destination is kept as written unless it is in all caps, as some feeds
// publish it.
func summary(trip schedule.Trip, title cases.Caser) string {
	dest := trip.Name
	if _, after, ok := strings.Cut(trip.Name, " - "); ok {
		dest = after
	}
	if dest == "" {
		return trip.Tag
	}
	if isShouting(dest) {
		dest = title.String(dest)
	}
	return fmt.Sprintf("%s → %s", trip.Tag, dest)
}

func isShouting(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}
