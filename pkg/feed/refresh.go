package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Options describe which feed to fetch and what to keep from it.
type Options struct {
	URL      string
	Username string
	Password string
	Prefixes []string
	StopIDs  []string
	Path     string
	Force    bool
}

// Result reports what Refresh did.
type Result struct {
	Skipped bool // the file was already fresh
	Records int
	Bytes   int
}

// Refresh downloads and filters the feed into opts.Path unless the file was
// already written today.
func (c *Client) Refresh(ctx context.Context, opts Options, now time.Time) (Result, error) {
	if !opts.Force && IsFresh(opts.Path, now) {
		log.Info("schedule file already fresh", "path", opts.Path)
		return Result{Skipped: true}, nil
	}

	url := opts.URL
	if url == "" {
		url = DefaultURL
	}
	archive, err := c.Download(ctx, url, opts.Username, opts.Password)
	if err != nil {
		return Result{}, err
	}

	records, err := FilterStopTimes(archive, opts.Prefixes, opts.StopIDs)
	if err != nil {
		return Result{}, err
	}
	if err := Save(opts.Path, records); err != nil {
		return Result{}, err
	}

	log.Info("schedule file updated", "path", opts.Path, "records", len(records))
	return Result{Records: len(records), Bytes: len(archive)}, nil
}

// String is used for CLI output.
func (r Result) String() string {
	if r.Skipped {
		return "schedule already up to date"
	}
	return fmt.Sprintf("saved %d stop times (%d KiB downloaded)", r.Records, r.Bytes/1024)
}
