package board

import (
	"time"

	"github.com/pthomas-44/nextbus/pkg/schedule"
)

// Schedule is the query side of schedule.Manager.
type Schedule interface {
	Trips() []schedule.Trip
	NextArrivals(id schedule.TripID, from, count int) []schedule.Bus
}

// Row holds the rendered upcoming arrivals of one trip.
type Row struct {
	Trip    schedule.Trip `json:"trip"`
	Entries []Entry       `json:"entries"`
}

// Preview returns the first entry, which the panel label shows.
func (r Row) Preview() Entry {
	if len(r.Entries) == 0 {
		return FormatBus(nil, ModePreview, Thresholds{})
	}
	return r.Entries[0]
}

// Build renders every trip of the catalogue as of now. Each row has exactly
// ArrivalsToShow entries; missing arrivals are filled with the placeholder.
func Build(s Schedule, now time.Time, mode Mode, th Thresholds) []Row {
	trips := s.Trips()
	rows := make([]Row, 0, len(trips))
	for _, trip := range trips {
		rows = append(rows, BuildRow(s, trip, now, mode, th))
	}
	return rows
}

// BuildRow renders a single trip.
func BuildRow(s Schedule, trip schedule.Trip, now time.Time, mode Mode, th Thresholds) Row {
	from := schedule.SecondsOfDay(now)
	buses := s.NextArrivals(trip.ID, from, trip.ArrivalsToShow)

	entries := make([]Entry, trip.ArrivalsToShow)
	for i := range entries {
		if i >= len(buses) {
			entries[i] = FormatBus(nil, mode, th)
			continue
		}
		bus := buses[i]
		bus.SetDeltaTimeWith(from)
		entries[i] = FormatBus(&bus, mode, th)
	}

	return Row{Trip: trip, Entries: entries}
}
