// Package source reads raw schedule records from wherever the fetcher left
// them and loads them into a schedule.Manager.
package source

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/pthomas-44/nextbus/pkg/schedule"
)

// ErrNoData is returned when a source has nothing to read yet, e.g. the
// schedule file has not been downloaded.
var ErrNoData = errors.New("no schedule data available")

// Record is one GTFS stop_times row, reduced to the columns nextbus reads.
type Record struct {
	TripID        string `json:"trip_id"`
	StopID        string `json:"stop_id,omitempty"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time,omitempty"`
	StopSequence  string `json:"stop_sequence,omitempty"`
}

// Batch maps raw trip ids to their arrival time strings.
type Batch map[string][]string

// Add appends one arrival to the batch.
func (b Batch) Add(tripID, arrival string) {
	b[tripID] = append(b[tripID], arrival)
}

// Len counts the arrivals in the batch.
func (b Batch) Len() int {
	n := 0
	for _, times := range b {
		n += len(times)
	}
	return n
}

// FromRecords groups records by trip id. Records without a trip id are dropped.
func FromRecords(records []Record) Batch {
	b := make(Batch)
	for _, r := range records {
		if r.TripID == "" {
			continue
		}
		b.Add(r.TripID, r.ArrivalTime)
	}
	return b
}

// Source fetches a complete batch. Implementations return an error rather
// than a partial batch.
type Source interface {
	Fetch(ctx context.Context) (Batch, error)
}

// Report summarises an Apply.
type Report struct {
	Trips   int `json:"trips"`
	Buses   int `json:"buses"`
	Skipped int `json:"skipped"`
}

// Apply loads a successfully fetched batch into m. A catalogue trip collects
// the arrivals of every batch key equal to its id or starting with it, so
// both prefix-rewritten exports and raw GTFS trip ids work. Trips with no
// matching key are loaded empty.
func Apply(m *schedule.Manager, b Batch) (Report, error) {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var report Report
	for _, trip := range m.Trips() {
		var times []string
		for _, k := range keys {
			if strings.HasPrefix(k, string(trip.ID)) {
				times = append(times, b[k]...)
			}
		}

		skipped, err := m.LoadTimes(trip.ID, times)
		if err != nil {
			return report, err
		}
		report.Trips++
		report.Skipped += skipped
		report.Buses += m.Len(trip.ID)
	}
	return report, nil
}
