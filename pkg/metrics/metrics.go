// Package metrics exposes the board's refresh activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch results used as the "result" label.
const (
	ResultOK         = "ok"
	ResultError      = "error"
	ResultSuperseded = "superseded"
	ResultSkipped    = "skipped"
)

type Collector struct {
	reg *prometheus.Registry

	Fetches        *prometheus.CounterVec // result label: ok|error|superseded
	FetchDuration  prometheus.Histogram
	Buses          *prometheus.GaugeVec // trip label
	SkippedRecords prometheus.Counter
	LastReload     prometheus.Gauge

	FeedDownloads *prometheus.CounterVec // result label: ok|error|skipped
	FeedBytes     prometheus.Counter

	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextbus_fetches_total",
			Help: "Schedule fetches by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nextbus_fetch_duration_seconds",
			Help:    "Duration of a schedule fetch and reload.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		Buses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nextbus_buses",
			Help: "Buses loaded for today, per trip.",
		}, []string{"trip"}),
		SkippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nextbus_skipped_records_total",
			Help: "Malformed schedule records skipped during reloads.",
		}),
		LastReload: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nextbus_last_reload_timestamp_seconds",
			Help: "Unix time of the last applied reload.",
		}),
		FeedDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextbus_feed_downloads_total",
			Help: "GTFS feed refreshes by result.",
		}, []string{"result"}),
		FeedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nextbus_feed_bytes_total",
			Help: "Bytes downloaded from the GTFS feed.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nextbus_refresh_interval_seconds",
			Help: "Board refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Fetches, c.FetchDuration, c.Buses, c.SkippedRecords, c.LastReload,
		c.FeedDownloads, c.FeedBytes, c.RefreshInterval,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())
	return c
}

// ObserveFetch records one completed fetch.
func (c *Collector) ObserveFetch(result string, d time.Duration) {
	c.Fetches.WithLabelValues(result).Inc()
	c.FetchDuration.Observe(d.Seconds())
}

// ObserveReload records an applied reload.
func (c *Collector) ObserveReload(at time.Time, buses map[string]int, skipped int) {
	for trip, n := range buses {
		c.Buses.WithLabelValues(trip).Set(float64(n))
	}
	c.SkippedRecords.Add(float64(skipped))
	c.LastReload.Set(float64(at.Unix()))
}

// ObserveFeed records a feed refresh.
func (c *Collector) ObserveFeed(result string, bytes int) {
	c.FeedDownloads.WithLabelValues(result).Inc()
	c.FeedBytes.Add(float64(bytes))
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
