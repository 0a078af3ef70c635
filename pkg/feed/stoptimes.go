package feed

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pthomas-44/nextbus/pkg/source"
)

// StopTimesFile is the archive member holding the timetable.
const StopTimesFile = "stop_times.txt"

// ErrNoStopTimes is returned when the archive has no stop_times.txt.
var ErrNoStopTimes = errors.New("stop_times.txt not found in archive")

// FilterStopTimes reads stop_times.txt out of a GTFS zip and keeps the rows
// whose trip_id starts with one of prefixes and whose stop_id is in stopIDs.
// An empty stopIDs keeps every stop. Each kept row's trip_id is rewritten to
// the prefix it matched.
func FilterStopTimes(archive []byte, prefixes, stopIDs []string) ([]source.Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != StopTimesFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer rc.Close()
		return filterCSV(rc, prefixes, stopIDs)
	}
	return nil, ErrNoStopTimes
}

func filterCSV(r io.Reader, prefixes, stopIDs []string) ([]source.Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", StopTimesFile, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"trip_id", "arrival_time", "stop_id"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", StopTimesFile, required)
		}
	}

	stops := make(map[string]bool, len(stopIDs))
	for _, id := range stopIDs {
		stops[id] = true
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []source.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", StopTimesFile, err)
		}

		prefix, ok := matchPrefix(field(row, "trip_id"), prefixes)
		if !ok {
			continue
		}
		stopID := field(row, "stop_id")
		if len(stops) > 0 && !stops[stopID] {
			continue
		}

		out = append(out, source.Record{
			TripID:        prefix,
			StopID:        stopID,
			ArrivalTime:   field(row, "arrival_time"),
			DepartureTime: field(row, "departure_time"),
			StopSequence:  field(row, "stop_sequence"),
		})
	}
	return out, nil
}

func matchPrefix(tripID string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(tripID, p) {
			return p, true
		}
	}
	return "", false
}
