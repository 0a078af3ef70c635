package schedule

import (
	"errors"
	"fmt"
)

// TripID identifies a tracked route/stop/destination combination, usually a
// GTFS trip_id prefix such as "86A_18_2_040AM".
type TripID string

// Trip is the static description of one line of the board.
type Trip struct {
	ID             TripID `json:"id" validate:"required"`
	Tag            string `json:"tag" validate:"required"` // short route label, e.g. "86"
	Name           string `json:"name"`                    // menu header, e.g. "86 - Gorge de Loup"
	ArrivalsToShow int    `json:"arrivals_to_show" validate:"gte=1"`
}

// Validate checks the invariants the Manager relies on.
func (t Trip) Validate() error {
	if t.ID == "" {
		return errors.New("trip id must not be empty")
	}
	if t.ArrivalsToShow < 1 {
		return fmt.Errorf("trip %s: arrivals to show must be at least 1, got %d", t.ID, t.ArrivalsToShow)
	}
	return nil
}

// Bus is one scheduled arrival of a trip.
type Bus struct {
	ScheduledSeconds  int  // raw seconds since service-day midnight, may exceed SecondsPerDay
	NormalizedSeconds int  // ScheduledSeconds folded into the wall-clock day
	IsLastOfDay       bool // only set on the chronologically last bus of its trip
	DeltaSeconds      int  // -1 until SetDeltaTimeWith is called
}

// NewBus builds a Bus for a raw scheduled time.
func NewBus(scheduled int) Bus {
	return Bus{
		ScheduledSeconds:  scheduled,
		NormalizedSeconds: Normalize(scheduled),
		DeltaSeconds:      -1,
	}
}

// SetDeltaTimeWith computes the seconds remaining from the wall-clock time
// from until this bus arrives. The result wraps across midnight and is always
// in [0, SecondsPerDay).
func (b *Bus) SetDeltaTimeWith(from int) {
	b.DeltaSeconds = (b.NormalizedSeconds - Normalize(from) + SecondsPerDay) % SecondsPerDay
}

// HasDelta reports whether SetDeltaTimeWith has been called.
func (b Bus) HasDelta() bool {
	return b.DeltaSeconds >= 0
}

// Clock returns the wall-clock arrival time as HH:MM.
func (b Bus) Clock() string {
	return FormatClock(b.NormalizedSeconds)
}
