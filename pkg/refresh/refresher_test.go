package refresh

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthomas-44/nextbus/pkg/metrics"
	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/source"
)

const trip schedule.TripID = "86A_18_2_040AM"

type sourceFunc func(ctx context.Context) (source.Batch, error)

func (f sourceFunc) Fetch(ctx context.Context) (source.Batch, error) { return f(ctx) }

type recorder struct {
	mu      sync.Mutex
	results []string
	reloads int
}

func (r *recorder) ObserveFetch(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) ObserveReload(time.Time, map[string]int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads++
}

func newManager(t *testing.T) *schedule.Manager {
	t.Helper()
	m, err := schedule.NewManager([]schedule.Trip{{ID: trip, Tag: "86", ArrivalsToShow: 3}},
		schedule.WithLogger(log.New(&bytes.Buffer{})))
	require.NoError(t, err)
	return m
}

func TestTrigger_AppliesBatch(t *testing.T) {
	m := newManager(t)
	rec := &recorder{}
	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00", "09:00:00"}}, nil
	})

	report, err := New(src, m, time.Second, WithMetrics(rec)).Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Buses)
	assert.Equal(t, 2, m.Len(trip))
	assert.Equal(t, []string{metrics.ResultOK}, rec.results)
	assert.Equal(t, 1, rec.reloads)
}

func TestTrigger_FailureKeepsPreviousSchedule(t *testing.T) {
	m := newManager(t)
	fail := false
	src := sourceFunc(func(context.Context) (source.Batch, error) {
		if fail {
			return nil, errors.New("feed unreachable")
		}
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	rec := &recorder{}
	r := New(src, m, time.Second, WithMetrics(rec))

	_, err := r.Trigger(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = r.Trigger(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, m.Len(trip))
	assert.Equal(t, []string{metrics.ResultOK, metrics.ResultError}, rec.results)
}

func TestTrigger_StaleResultIsDropped(t *testing.T) {
	m := newManager(t)
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return source.Batch{string(trip): {"06:00:00"}}, nil
		}
		return source.Batch{string(trip): {"07:00:00", "08:00:00"}}, nil
	})
	rec := &recorder{}
	r := New(src, m, time.Second, WithMetrics(rec))

	slow := make(chan error, 1)
	go func() {
		_, err := r.Trigger(context.Background())
		slow <- err
	}()
	<-started

	_, err := r.Trigger(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, m.Len(trip))

	close(release)
	assert.ErrorIs(t, <-slow, ErrSuperseded)
	assert.Equal(t, 2, m.Len(trip), "the older fetch must not overwrite the newer schedule")
	assert.Equal(t, []string{metrics.ResultOK, metrics.ResultSuperseded}, rec.results)
}

func TestTrigger_DailyHookOncePerDay(t *testing.T) {
	m := newManager(t)
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	var hooks int
	failNext := false

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	r := New(src, m, time.Second,
		WithClock(func() time.Time { return now }),
		WithDaily(func(context.Context) error {
			hooks++
			if failNext {
				return errors.New("download failed")
			}
			return nil
		}),
	)

	ctx := context.Background()
	_, err := r.Trigger(ctx)
	require.NoError(t, err)
	_, err = r.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hooks)

	now = now.Add(24 * time.Hour)
	failNext = true
	_, err = r.Trigger(ctx)
	require.NoError(t, err, "a failed daily hook does not fail the fetch")
	assert.Equal(t, 2, hooks)

	failNext = false
	_, err = r.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, hooks, "a failed hook waits for the retry delay")

	now = now.Add(DefaultDailyRetry)
	_, err = r.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, hooks, "a failed hook is retried after the delay")

	now = now.Add(DefaultDailyRetry)
	_, err = r.Trigger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, hooks, "a successful retry settles the day")
}

func TestTrigger_FailingDailyHookBacksOff(t *testing.T) {
	m := newManager(t)
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	var hooks int

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	r := New(src, m, 5*time.Second,
		WithClock(func() time.Time { return now }),
		WithDaily(func(context.Context) error {
			hooks++
			return errors.New("download failed")
		}),
	)

	ctx := context.Background()
	for i := 0; i < 720; i++ {
		_, err := r.Trigger(ctx)
		require.NoError(t, err)
		now = now.Add(5 * time.Second)
	}
	assert.Equal(t, 4, hooks, "one attempt per retry delay over an hour of 5s ticks")
}

func TestTrigger_DailyRetryOption(t *testing.T) {
	m := newManager(t)
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	var hooks int

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	r := New(src, m, time.Second,
		WithClock(func() time.Time { return now }),
		WithDailyRetry(time.Minute),
		WithDaily(func(context.Context) error {
			hooks++
			return errors.New("download failed")
		}),
	)

	ctx := context.Background()
	_, _ = r.Trigger(ctx)
	now = now.Add(59 * time.Second)
	_, _ = r.Trigger(ctx)
	assert.Equal(t, 1, hooks)
	now = now.Add(time.Second)
	_, _ = r.Trigger(ctx)
	assert.Equal(t, 2, hooks)
}

func TestTrigger_SkipsDailyHookWhileRunning(t *testing.T) {
	m := newManager(t)
	started := make(chan struct{})
	release := make(chan struct{})

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	r := New(src, m, time.Second,
		WithDaily(func(context.Context) error {
			close(started)
			<-release
			return nil
		}),
	)

	ctx := context.Background()
	first := make(chan error, 1)
	go func() {
		_, err := r.Trigger(ctx)
		first <- err
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		_, err := r.Trigger(ctx)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("trigger waited for the running daily hook")
	}

	close(release)
	// the first fetch was issued earlier and is now stale
	assert.ErrorIs(t, <-first, ErrSuperseded)
}

func TestRun_StopsOnCancel(t *testing.T) {
	m := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	var reloads atomic.Int32

	src := sourceFunc(func(context.Context) (source.Batch, error) {
		return source.Batch{string(trip): {"08:05:00"}}, nil
	})
	r := New(src, m, 10*time.Millisecond, WithOnReload(func(source.Report) {
		if reloads.Add(1) == 3 {
			cancel()
		}
	}))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("refresher did not stop")
	}
	assert.GreaterOrEqual(t, reloads.Load(), int32(3))
}
