package board

import (
	"fmt"

	"github.com/pthomas-44/nextbus/pkg/schedule"
)

// Placeholder is shown in place of an arrival that is not known.
const Placeholder = "..."

// LastBusMarker is appended to the last bus of the day.
const LastBusMarker = "(last bus)"

// Severity buckets an arrival by urgency. The UI layer maps it to a style.
type Severity string

const (
	SeverityLoading  Severity = "loading"
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityNormal   Severity = "normal"
)

// Mode selects how much detail an entry carries.
type Mode string

const (
	// ModePreview is the compact text used in the panel label.
	ModePreview Mode = "preview"
	// ModeDetailed adds the wall-clock arrival time, as in the dropdown menu.
	ModeDetailed Mode = "detailed"
)

// ParseMode accepts "preview" or "detailed"; the empty string means preview.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePreview:
		return ModePreview, nil
	case ModeDetailed:
		return ModeDetailed, nil
	}
	return "", fmt.Errorf("unknown display mode %q (want preview or detailed)", s)
}

// Thresholds are the upper bounds, inclusive, of the critical and warning buckets.
type Thresholds struct {
	CriticalThresholdSeconds int `json:"critical_threshold_seconds" validate:"gte=0"`
	WarningThresholdSeconds  int `json:"warning_threshold_seconds" validate:"gtefield=CriticalThresholdSeconds"`
}

// DefaultThresholds are 5 and 10 minutes.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalThresholdSeconds: 5 * 60,
		WarningThresholdSeconds:  10 * 60,
	}
}

// SeverityFor buckets a delta in seconds.
func (t Thresholds) SeverityFor(deltaSeconds int) Severity {
	switch {
	case deltaSeconds < 0:
		return SeverityLoading
	case deltaSeconds <= t.CriticalThresholdSeconds:
		return SeverityCritical
	case deltaSeconds <= t.WarningThresholdSeconds:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Entry is one rendered arrival.
type Entry struct {
	Text         string   `json:"text"`
	Severity     Severity `json:"severity"`
	Clock        string   `json:"clock,omitempty"`
	DeltaSeconds int      `json:"delta_seconds"`
	Last         bool     `json:"last,omitempty"`
}

// FormatBus renders a bus whose delta has already been computed. A nil bus
// renders the placeholder with the loading severity.
func FormatBus(bus *schedule.Bus, mode Mode, th Thresholds) Entry {
	if bus == nil || !bus.HasDelta() {
		return Entry{Text: Placeholder, Severity: SeverityLoading, DeltaSeconds: -1}
	}

	text := FormatDelta(bus.DeltaSeconds)
	if mode == ModeDetailed {
		text += " · " + bus.Clock()
	}
	if bus.IsLastOfDay {
		text += " " + LastBusMarker
	}

	return Entry{
		Text:         text,
		Severity:     th.SeverityFor(bus.DeltaSeconds),
		Clock:        bus.Clock(),
		DeltaSeconds: bus.DeltaSeconds,
		Last:         bus.IsLastOfDay,
	}
}

// FormatDelta renders seconds as "12 min" or "1h 05 min".
func FormatDelta(seconds int) string {
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %02d min", minutes/60, minutes%60)
}
