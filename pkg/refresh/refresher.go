// Package refresh keeps a schedule.Manager loaded from a source.Source.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pthomas-44/nextbus/pkg/metrics"
	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/source"
)

// ErrSuperseded is returned by Trigger when a fetch issued later has already
// been applied; the older result is discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer one")

// Metrics receives refresh observations. *metrics.Collector implements it.
type Metrics interface {
	ObserveFetch(result string, d time.Duration)
	ObserveReload(at time.Time, buses map[string]int, skipped int)
}

// Refresher fetches the schedule on a fixed interval. Every fetch takes a
// sequence number when it is issued; a result is applied only if it is newer
// than the last applied one, so a slow fetch can never overwrite a fresher
// reload. A failed fetch leaves the previous schedule in place.
type Refresher struct {
	src      source.Source
	manager  *schedule.Manager
	interval time.Duration
	metrics  Metrics
	daily    func(ctx context.Context) error
	onReload func(source.Report)
	now      func() time.Time

	issued atomic.Uint64

	mu      sync.Mutex
	applied uint64

	dailyRetry    time.Duration
	dailyMu       sync.Mutex
	dailyDay      schedule.Day
	dailyFailedAt time.Time
}

// DefaultDailyRetry is how long a failed daily hook waits before it runs again.
const DefaultDailyRetry = 15 * time.Minute

type Option func(*Refresher)

func WithMetrics(m Metrics) Option {
	return func(r *Refresher) { r.metrics = m }
}

// WithDaily runs fn before the first fetch of every calendar day, typically
// to download a new feed. A failing hook is logged and the fetch proceeds;
// it is retried once the daily retry delay has passed. A fetch that finds
// the hook already running skips it instead of waiting.
func WithDaily(fn func(ctx context.Context) error) Option {
	return func(r *Refresher) { r.daily = fn }
}

// WithDailyRetry sets the delay before a failed daily hook runs again.
func WithDailyRetry(d time.Duration) Option {
	return func(r *Refresher) { r.dailyRetry = d }
}

// WithOnReload is called after every applied reload.
func WithOnReload(fn func(source.Report)) Option {
	return func(r *Refresher) { r.onReload = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

func New(src source.Source, m *schedule.Manager, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		src:      src,
		manager:  m,
		interval:   interval,
		now:        time.Now,
		dailyRetry: DefaultDailyRetry,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fetches immediately and then on every tick until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logResult(r.Trigger(ctx))
	if r.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.logResult(r.Trigger(ctx))
		}
	}
}

func (r *Refresher) logResult(_ source.Report, err error) {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, ErrSuperseded):
		log.Debug("dropped stale schedule fetch")
	default:
		log.Error("schedule refresh failed, keeping previous schedule", "err", err)
	}
}

// Trigger issues one fetch and applies its result if it is still the newest.
func (r *Refresher) Trigger(ctx context.Context) (source.Report, error) {
	seq := r.issued.Add(1)
	start := r.now()

	r.runDaily(ctx)

	batch, err := r.src.Fetch(ctx)
	if err != nil {
		r.observe(metrics.ResultError, start)
		return source.Report{}, err
	}

	r.mu.Lock()
	if seq <= r.applied {
		r.mu.Unlock()
		r.observe(metrics.ResultSuperseded, start)
		return source.Report{}, ErrSuperseded
	}
	report, err := source.Apply(r.manager, batch)
	if err != nil {
		r.mu.Unlock()
		r.observe(metrics.ResultError, start)
		return report, err
	}
	r.applied = seq
	r.mu.Unlock()

	r.observe(metrics.ResultOK, start)
	if r.metrics != nil {
		buses := make(map[string]int)
		for _, t := range r.manager.Trips() {
			buses[string(t.ID)] = r.manager.Len(t.ID)
		}
		r.metrics.ObserveReload(r.now(), buses, report.Skipped)
	}
	log.Debug("schedule reloaded", "seq", seq, "trips", report.Trips, "buses", report.Buses, "skipped", report.Skipped)
	if r.onReload != nil {
		r.onReload(report)
	}
	return report, nil
}

func (r *Refresher) observe(result string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveFetch(result, r.now().Sub(start))
	}
}

func (r *Refresher) runDaily(ctx context.Context) {
	if r.daily == nil {
		return
	}
	if !r.dailyMu.TryLock() {
		return
	}
	defer r.dailyMu.Unlock()

	now := r.now()
	today := schedule.DayBucket(now)
	if today == r.dailyDay {
		return
	}
	if !r.dailyFailedAt.IsZero() && now.Sub(r.dailyFailedAt) < r.dailyRetry {
		return
	}
	if err := r.daily(ctx); err != nil {
		r.dailyFailedAt = now
		log.Warn("daily feed refresh failed", "day", today, "retry_in", r.dailyRetry, "err", err)
		return
	}
	r.dailyDay = today
	r.dailyFailedAt = time.Time{}
}
