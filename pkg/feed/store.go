package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/source"
)

// ErrEmpty is returned by Save when there is nothing to write.
var ErrEmpty = errors.New("no stop times to save")

// Save writes records as a JSON array at path. The file is replaced
// atomically; an empty record set leaves any existing file untouched.
func Save(path string, records []source.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmpty)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create schedule directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stop times: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write stop times: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write stop times: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// IsFresh reports whether path exists and was written on now's calendar day.
func IsFresh(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return schedule.DayBucket(info.ModTime().In(now.Location())) == schedule.DayBucket(now)
}
