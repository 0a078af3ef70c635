package schedule

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// ErrUnknownTrip is returned when a trip id is not part of the catalogue.
var ErrUnknownTrip = errors.New("unknown trip")

// timetable is one complete, immutable arrival list for a trip.
type timetable struct {
	buses    []Bus
	loadedAt time.Time
}

// Manager owns the trip catalogue and, per trip, the sorted list of today's
// buses. The catalogue is fixed at construction. Each trip's list is swapped
// wholesale on reload, so readers on other goroutines always observe either
// the previous or the next complete list.
type Manager struct {
	trips    map[TripID]Trip
	order    []TripID
	schedule map[TripID]*atomic.Pointer[timetable]

	logger *log.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger routes warnings about unknown trips and skipped records to l.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the clock used to stamp reloads.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager for the given catalogue. Trip ids must be unique.
func NewManager(trips []Trip, opts ...Option) (*Manager, error) {
	m := &Manager{
		trips:    make(map[TripID]Trip, len(trips)),
		schedule: make(map[TripID]*atomic.Pointer[timetable], len(trips)),
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, t := range trips {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.trips[t.ID]; exists {
			return nil, fmt.Errorf("duplicate trip id %q", t.ID)
		}
		m.trips[t.ID] = t
		m.order = append(m.order, t.ID)
		m.schedule[t.ID] = &atomic.Pointer[timetable]{}
	}

	return m, nil
}

// Trips returns the catalogue in the order it was configured.
func (m *Manager) Trips() []Trip {
	out := make([]Trip, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.trips[id])
	}
	return out
}

// Trip looks up a single catalogue entry.
func (m *Manager) Trip(id TripID) (Trip, bool) {
	t, ok := m.trips[id]
	return t, ok
}

// Load replaces the trip's buses with the given raw scheduled times. The input
// does not need to be sorted; identical times collapse into one bus.
func (m *Manager) Load(id TripID, seconds []int) error {
	slot, ok := m.schedule[id]
	if !ok {
		return fmt.Errorf("load %q: %w", id, ErrUnknownTrip)
	}

	sorted := slices.Clone(seconds)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	buses := make([]Bus, len(sorted))
	for i, s := range sorted {
		buses[i] = NewBus(s)
	}
	if n := len(buses); n > 0 {
		buses[n-1].IsLastOfDay = true
	}

	slot.Store(&timetable{buses: buses, loadedAt: m.now()})
	return nil
}

// LoadTimes parses raw "HH:MM:SS" strings and loads the valid ones. Malformed
// entries are logged and skipped; the count of skipped entries is returned.
func (m *Manager) LoadTimes(id TripID, texts []string) (int, error) {
	seconds := make([]int, 0, len(texts))
	skipped := 0
	for _, text := range texts {
		s, err := ParseTimeOfDay(text)
		if err != nil {
			m.logger.Warn("skipping schedule record", "trip", id, "err", err)
			skipped++
			continue
		}
		seconds = append(seconds, s)
	}
	return skipped, m.Load(id, seconds)
}

// NextArrivals returns up to count buses of the trip scheduled strictly after
// from (raw seconds since midnight). The search never wraps around to the
// start of the day: past the last bus the result is shorter, or empty.
// Returned buses are copies with DeltaSeconds unset.
func (m *Manager) NextArrivals(id TripID, from, count int) []Bus {
	slot, ok := m.schedule[id]
	if !ok {
		m.logger.Warn("query for unknown trip", "trip", id)
		return nil
	}
	tt := slot.Load()
	if tt == nil || count <= 0 {
		return nil
	}

	buses := tt.buses
	start := sort.Search(len(buses), func(i int) bool {
		return buses[i].ScheduledSeconds > from
	})
	end := min(start+count, len(buses))

	out := make([]Bus, end-start)
	copy(out, buses[start:end])
	return out
}

// NextArrivalsAt is NextArrivals for a wall-clock instant.
func (m *Manager) NextArrivalsAt(id TripID, at time.Time, count int) []Bus {
	return m.NextArrivals(id, SecondsOfDay(at), count)
}

// Remaining returns every bus of the trip after from.
func (m *Manager) Remaining(id TripID, from int) []Bus {
	return m.NextArrivals(id, from, m.Len(id))
}

// Len reports how many buses are loaded for the trip.
func (m *Manager) Len(id TripID) int {
	slot, ok := m.schedule[id]
	if !ok {
		return 0
	}
	if tt := slot.Load(); tt != nil {
		return len(tt.buses)
	}
	return 0
}

// LoadedAt reports when the trip was last reloaded. ok is false until the
// first Load.
func (m *Manager) LoadedAt(id TripID) (time.Time, bool) {
	slot, ok := m.schedule[id]
	if !ok {
		return time.Time{}, false
	}
	tt := slot.Load()
	if tt == nil {
		return time.Time{}, false
	}
	return tt.loadedAt, true
}
