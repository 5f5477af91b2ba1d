// Package metrics holds the Prometheus collectors for upstream retrieval and
// the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohan_upstream_fetches_total",
			Help: "Complete clinic retrievals from the upstream source, by outcome",
		},
		[]string{"source", "outcome"},
	)

	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ohan_upstream_fetch_duration_seconds",
			Help:    "Wall time of a complete clinic retrieval, all pages included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"source", "outcome"},
	)

	UpstreamPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohan_upstream_pages_total",
			Help: "Upstream list pages decoded",
		},
		[]string{"source"},
	)

	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohan_upstream_failures_total",
			Help: "Failed retrievals, by reason (status, malformed, transport, canceled)",
		},
		[]string{"source", "reason"},
	)

	UpstreamRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ohan_upstream_records",
			Help: "Rows returned by the most recent successful retrieval",
		},
		[]string{"source"},
	)

	RelayCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohan_relay_cache_total",
			Help: "Relay snapshot cache lookups, by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ohan_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code",
		},
		[]string{"route", "status"},
	)
)

// Fetch outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
