package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Script runs an external command and reads arrivals from its standard
// output, one per line. A line is either "TRIP_ID HH:MM:SS" or, when TripID
// is set, a bare "HH:MM:SS" (a leading "- " bullet is tolerated). Other lines
// are ignored.
type Script struct {
	Command string
	TripID  string
}

func (s Script) Fetch(ctx context.Context) (Batch, error) {
	argv := strings.Fields(s.Command)
	if len(argv) == 0 {
		return nil, errors.New("script source: empty command")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("script %q failed: %w: %s", argv[0], err, msg)
		}
		return nil, fmt.Errorf("script %q failed: %w", argv[0], err)
	}

	return ParseLines(bytes.NewReader(out), s.TripID)
}

// ParseLines reads the line format described on Script.
func ParseLines(r io.Reader, defaultTrip string) (Batch, error) {
	b := make(Batch)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch {
		case len(fields) == 2 && looksLikeTime(fields[1]):
			b.Add(fields[0], fields[1])
		case len(fields) == 1 && defaultTrip != "" && looksLikeTime(fields[0]):
			b.Add(defaultTrip, fields[0])
		default:
			log.Debug("ignoring script output line", "line", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script output: %w", err)
	}
	return b, nil
}

// looksLikeTime keeps prose lines out of the batch while still letting
// malformed times through, so they are reported when parsed.
func looksLikeTime(s string) bool {
	return strings.Contains(s, ":") && s[0] >= '0' && s[0] <= '9'
}
