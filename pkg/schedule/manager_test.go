package schedule

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripA TripID = "86A_18_2_040AM"

func newTestManager(t *testing.T, buf *bytes.Buffer) *Manager {
	t.Helper()
	opts := []Option{}
	if buf != nil {
		opts = append(opts, WithLogger(log.New(buf)))
	}
	m, err := NewManager([]Trip{
		{ID: tripA, Tag: "86", Name: "86 - Gorge de Loup", ArrivalsToShow: 3},
		{ID: "5A_34_2_046AB", Tag: "5", Name: "5 - Pont Mouton", ArrivalsToShow: 2},
	}, opts...)
	require.NoError(t, err)
	return m
}

func hm(h, m int) int { return h*3600 + m*60 }

func TestNewManager_RejectsInvalidCatalogue(t *testing.T) {
	_, err := NewManager([]Trip{
		{ID: tripA, Tag: "86", ArrivalsToShow: 3},
		{ID: tripA, Tag: "86", ArrivalsToShow: 1},
	})
	assert.Error(t, err, "duplicate ids must be rejected")

	_, err = NewManager([]Trip{{ID: tripA, Tag: "86", ArrivalsToShow: 0}})
	assert.Error(t, err, "arrivals to show must be positive")

	_, err = NewManager([]Trip{{Tag: "86", ArrivalsToShow: 1}})
	assert.Error(t, err, "empty id must be rejected")
}

func TestManager_TripsKeepsCatalogueOrder(t *testing.T) {
	m := newTestManager(t, nil)
	trips := m.Trips()
	require.Len(t, trips, 2)
	assert.Equal(t, tripA, trips[0].ID)
	assert.Equal(t, TripID("5A_34_2_046AB"), trips[1].ID)

	trip, ok := m.Trip(tripA)
	assert.True(t, ok)
	assert.Equal(t, "86", trip.Tag)
}

func TestManager_NextArrivals(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(8, 0), hm(8, 5), hm(9, 0)}))

	from := hm(8, 0) + 60
	got := m.NextArrivals(tripA, from, 2)
	require.Len(t, got, 2)

	assert.Equal(t, hm(8, 5), got[0].ScheduledSeconds)
	assert.Equal(t, hm(9, 0), got[1].ScheduledSeconds)
	assert.Equal(t, -1, got[0].DeltaSeconds, "delta is computed by the caller")

	got[0].SetDeltaTimeWith(from)
	got[1].SetDeltaTimeWith(from)
	assert.Equal(t, 240, got[0].DeltaSeconds)
	assert.Equal(t, 3540, got[1].DeltaSeconds)
	assert.False(t, got[0].IsLastOfDay)
	assert.True(t, got[1].IsLastOfDay)
}

func TestBus_SetDeltaTimeWith(t *testing.T) {
	tests := []struct {
		name      string
		scheduled int
		from      int
		want      int
	}{
		{"same instant", hm(8, 0), hm(8, 0), 0},
		{"midnight bus at midnight", hm(24, 0), 0, 0},
		{"one second before midnight", hm(24, 0), SecondsPerDay - 1, 1},
		{"just departed wraps to a full day", hm(8, 0), hm(8, 0) + 1, SecondsPerDay - 1},
		{"last second of the day from midnight", SecondsPerDay - 1, 0, SecondsPerDay - 1},
		{"from past midnight in raw seconds", hm(24, 20), hm(24, 10), 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBus(tt.scheduled)
			b.SetDeltaTimeWith(tt.from)
			assert.Equal(t, tt.want, b.DeltaSeconds)
			assert.Equal(t, tt.want == 0, b.NormalizedSeconds == Normalize(tt.from))
		})
	}
}

func TestManager_NextArrivalsIsStrictlyAfter(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(8, 0), hm(8, 5)}))

	got := m.NextArrivals(tripA, hm(8, 0), 3)
	require.Len(t, got, 1)
	assert.Equal(t, hm(8, 5), got[0].ScheduledSeconds)
}

func TestManager_LoadSortsAndMarksLast(t *testing.T) {
	m := newTestManager(t, nil)
	input := []int{hm(22, 0), hm(6, 30), hm(24, 15), hm(12, 0), hm(6, 30)}
	require.NoError(t, m.Load(tripA, input))

	all := m.NextArrivals(tripA, -1, 10)
	require.Len(t, all, 4, "duplicate times collapse into one bus")

	lastCount := 0
	for i, b := range all {
		if i > 0 {
			assert.Greater(t, b.ScheduledSeconds, all[i-1].ScheduledSeconds)
		}
		if b.IsLastOfDay {
			lastCount++
			assert.Equal(t, hm(24, 15), b.ScheduledSeconds)
		}
	}
	assert.Equal(t, 1, lastCount)
	assert.Equal(t, hm(0, 15), all[3].NormalizedSeconds)

	assert.Equal(t, []int{hm(22, 0), hm(6, 30), hm(24, 15), hm(12, 0), hm(6, 30)}, input, "input must not be mutated")
}

func TestManager_LastBusScenario(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(22, 30), hm(23, 50)}))

	got := m.NextArrivals(tripA, hm(23, 0), 3)
	require.Len(t, got, 1)
	got[0].SetDeltaTimeWith(hm(23, 0))
	assert.True(t, got[0].IsLastOfDay)
	assert.Equal(t, 3000, got[0].DeltaSeconds)

	assert.Empty(t, m.NextArrivals(tripA, hm(23, 55), 3), "no wrap-around to the morning")
}

func TestManager_NoWrapAroundPastLastBus(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(6, 0), hm(7, 0), hm(21, 0), hm(22, 0)}))

	got := m.NextArrivals(tripA, hm(21, 30), 3)
	require.Len(t, got, 1)
	assert.Equal(t, hm(22, 0), got[0].ScheduledSeconds)
}

func TestManager_PostMidnightContinuation(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(23, 50), hm(24, 20)}))

	from := hm(23, 55)
	got := m.NextArrivals(tripA, from, 3)
	require.Len(t, got, 1)
	got[0].SetDeltaTimeWith(from)
	assert.Equal(t, 25*60, got[0].DeltaSeconds)
	assert.Equal(t, "00:20", got[0].Clock())
}

func TestManager_EmptyAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(t, &buf)

	assert.Empty(t, m.NextArrivals(tripA, hm(8, 0), 3), "nothing loaded yet")
	_, loaded := m.LoadedAt(tripA)
	assert.False(t, loaded)

	require.NoError(t, m.Load(tripA, nil))
	assert.Empty(t, m.NextArrivals(tripA, hm(8, 0), 3))
	assert.Equal(t, 0, m.Len(tripA))

	assert.Empty(t, m.NextArrivals("nope", hm(8, 0), 3))
	assert.Contains(t, buf.String(), "unknown trip")

	err := m.Load("nope", []int{1})
	assert.True(t, errors.Is(err, ErrUnknownTrip))
}

func TestManager_LoadIsIdempotent(t *testing.T) {
	m := newTestManager(t, nil)
	times := []int{hm(9, 0), hm(7, 15), hm(18, 40)}

	require.NoError(t, m.Load(tripA, times))
	first := m.NextArrivals(tripA, hm(7, 0), 3)
	require.NoError(t, m.Load(tripA, times))
	second := m.NextArrivals(tripA, hm(7, 0), 3)

	assert.Equal(t, first, second)
}

func TestManager_ReturnedBusesAreCopies(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(9, 0)}))

	got := m.NextArrivals(tripA, 0, 1)
	got[0].SetDeltaTimeWith(0)
	got[0].IsLastOfDay = false

	again := m.NextArrivals(tripA, 0, 1)
	assert.Equal(t, -1, again[0].DeltaSeconds)
	assert.True(t, again[0].IsLastOfDay)
}

func TestManager_LoadTimesSkipsMalformed(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(t, &buf)

	skipped, err := m.LoadTimes(tripA, []string{"08:05:00", "garbage", "25:01:00", "8:61"})
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, m.Len(tripA))
	assert.Contains(t, buf.String(), "skipping schedule record")
}

func TestManager_LoadedAtUsesClock(t *testing.T) {
	stamp := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	m, err := NewManager([]Trip{{ID: tripA, Tag: "86", ArrivalsToShow: 1}}, WithClock(func() time.Time { return stamp }))
	require.NoError(t, err)

	require.NoError(t, m.Load(tripA, []int{1}))
	at, ok := m.LoadedAt(tripA)
	assert.True(t, ok)
	assert.Equal(t, stamp, at)
}

func TestManager_NextArrivalsAt(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Load(tripA, []int{hm(8, 5), hm(9, 0)}))

	at := time.Date(2026, 3, 4, 8, 1, 0, 0, time.Local)
	got := m.NextArrivalsAt(tripA, at, 1)
	require.Len(t, got, 1)
	assert.Equal(t, hm(8, 5), got[0].ScheduledSeconds)

	assert.Len(t, m.Remaining(tripA, hm(7, 0)), 2)
}

func TestManager_ConcurrentReloadAndQuery(t *testing.T) {
	m := newTestManager(t, nil)
	short := []int{hm(8, 0)}
	long := []int{hm(8, 0), hm(8, 10), hm(8, 20), hm(8, 30)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				_ = m.Load(tripA, short)
			} else {
				_ = m.Load(tripA, long)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			got := m.NextArrivals(tripA, 0, 10)
			if n := len(got); n != 0 && n != len(short) && n != len(long) {
				t.Errorf("observed a partial timetable of %d buses", n)
				return
			}
			if n := len(got); n > 0 && !got[n-1].IsLastOfDay {
				t.Errorf("last bus of a complete timetable must be flagged")
				return
			}
		}
	}()
	wg.Wait()
}
