// Package metrics holds the Prometheus collectors for match requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Match outcomes
const (
	ResultOK          = "ok"
	ResultEmpty       = "empty"
	ResultInvalidDate = "invalid_date"
	ResultError       = "error"
)

// Cache lookup outcomes
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all Prometheus metrics for talentmatch. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	MatchRequests *prometheus.CounterVec
	MatchDuration prometheus.Histogram
	Candidates    *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
}

// New creates the metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		MatchRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentmatch_match_requests_total",
				Help: "Total number of match requests by result",
			},
			[]string{"result"},
		),

		MatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talentmatch_match_duration_seconds",
				Help:    "Duration of match requests in seconds, including retrieval",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
		),

		Candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "talentmatch_match_candidates",
				Help:    "Number of candidates per match request by stage (retrieved, ranked)",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"stage"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentmatch_cache_lookups_total",
				Help: "Total number of result cache lookups by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.MatchRequests, m.MatchDuration, m.Candidates, m.CacheLookups)
	return m
}

// ObserveMatch records one match request
func (m *Metrics) ObserveMatch(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.MatchRequests.WithLabelValues(result).Inc()
	m.MatchDuration.Observe(elapsed.Seconds())
}

// ObserveCandidates records how many candidates a stage produced
func (m *Metrics) ObserveCandidates(stage string, n int) {
	if m == nil {
		return
	}
	m.Candidates.WithLabelValues(stage).Observe(float64(n))
}

// ObserveCache records one cache lookup
func (m *Metrics) ObserveCache(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
