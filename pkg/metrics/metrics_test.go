package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector(5 * time.Second)

	c.ObserveFetch(ResultOK, 20*time.Millisecond)
	c.ObserveFetch(ResultOK, 10*time.Millisecond)
	c.ObserveFetch(ResultSuperseded, time.Millisecond)
	c.ObserveReload(time.Unix(1700000000, 0), map[string]int{"86A_18_2_040AM": 42}, 3)
	c.ObserveFeed(ResultOK, 2048)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Fetches.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Fetches.WithLabelValues(ResultSuperseded)))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.Buses.WithLabelValues("86A_18_2_040AM")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.SkippedRecords))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(c.LastReload))
	assert.Equal(t, 2048.0, testutil.ToFloat64(c.FeedBytes))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.RefreshInterval))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `nextbus_fetches_total{result="ok"} 2`)
	assert.Contains(t, string(body), "nextbus_fetch_duration_seconds_count 3")
}
