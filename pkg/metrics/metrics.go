// Package metrics holds the prometheus collectors shared by the scrapers,
// the feed and the query API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ScrapeRequests *prometheus.CounterVec   // by endpoint, status
	ScrapeLatency  *prometheus.HistogramVec // by endpoint
	ScrapeRetries  *prometheus.CounterVec   // by endpoint

	FeedPolls    *prometheus.CounterVec // by result
	FeedDuration prometheus.Histogram

	WSClients prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScrapeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tseutils",
			Name:      "scrape_requests_total",
			Help:      "Scrape requests by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		ScrapeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tseutils",
			Name:      "scrape_latency_seconds",
			Help:      "Scrape request latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}, []string{"endpoint"}),
		ScrapeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tseutils",
			Name:      "scrape_retries_total",
			Help:      "Scrape attempts retried after a timeout.",
		}, []string{"endpoint"}),
		FeedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tseutils",
			Name:      "feed_polls_total",
			Help:      "Per-instrument feed polls by result.",
		}, []string{"result"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tseutils",
			Name:      "feed_round_seconds",
			Help:      "Duration of a full feed round over all instruments.",
			Buckets:   prometheus.LinearBuckets(0.25, 0.25, 12),
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tseutils",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
	}
	reg.MustRegister(
		m.ScrapeRequests,
		m.ScrapeLatency,
		m.ScrapeRetries,
		m.FeedPolls,
		m.FeedDuration,
		m.WSClients,
	)
	return m
}

// NewNop returns collectors registered nowhere
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
