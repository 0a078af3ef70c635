package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFile reads the array of stop_times records written by the feed fetcher.
type JSONFile struct {
	Path string
}

// ReadRecords decodes the records stored at path.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoData)
		}
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return records, nil
}

func (s JSONFile) Fetch(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := ReadRecords(s.Path)
	if err != nil {
		return nil, err
	}
	return FromRecords(records), nil
}
