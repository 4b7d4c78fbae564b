// Package metrics exposes Prometheus collectors for the card cache.
//
// All methods are safe to call on a nil *Metrics, which records nothing, so
// components can take an optional metrics dependency without guarding every
// call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "phrasify"

// Job kinds used as the "kind" label.
const (
	KindBulk = "bulk"
	KindFast = "fast"
)

// JobDurationBuckets covers LLM calls from 50ms to 2 minutes.
var JobDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120}

// Metrics groups the collectors of one process.
type Metrics struct {
	cardsServed    *prometheus.CounterVec
	exhaustions    *prometheus.CounterVec
	fallbacks      prometheus.Counter
	jobsStarted    *prometheus.CounterVec
	jobsFailed     *prometheus.CounterVec
	cardsProduced  *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cardsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "cards_served_total",
				Help:      "Cards popped from a queue and handed to a caller, by cache name.",
			},
			[]string{"cache"},
		),
		exhaustions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "exhausted_total",
				Help:      "Requests that found the queue empty after replenishment, by cache name.",
			},
			[]string{"cache"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "consumer",
				Name:      "fallbacks_total",
				Help:      "Takes that returned the seed card because no generated card was available.",
			},
		),
		jobsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "replenish",
				Name:      "jobs_started_total",
				Help:      "Replenishment jobs submitted, by kind.",
			},
			[]string{"kind"},
		),
		jobsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "replenish",
				Name:      "jobs_failed_total",
				Help:      "Replenishment jobs whose generator or store call failed, by kind.",
			},
			[]string{"kind"},
		),
		cardsProduced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "replenish",
				Name:      "cards_produced_total",
				Help:      "Cards appended to queues by replenishment jobs, by kind.",
			},
			[]string{"kind"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "replenish",
				Name:      "job_duration_seconds",
				Help:      "Duration of replenishment jobs, by kind.",
				Buckets:   JobDurationBuckets,
			},
			[]string{"kind"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "factory",
				Name:      "active_sessions",
				Help:      "Sessions currently held by the factory cache.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.cardsServed,
			m.exhaustions,
			m.fallbacks,
			m.jobsStarted,
			m.jobsFailed,
			m.cardsProduced,
			m.jobDuration,
			m.activeSessions,
		)
	}
	return m
}

// CardServed records one card handed out from the named cache.
func (m *Metrics) CardServed(cache string) {
	if m == nil {
		return
	}
	m.cardsServed.WithLabelValues(cache).Inc()
}

// Exhausted records one request that found nothing to serve.
func (m *Metrics) Exhausted(cache string) {
	if m == nil {
		return
	}
	m.exhaustions.WithLabelValues(cache).Inc()
}

// Fallback records one take that fell back to the seed card.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// JobStarted records the submission of a job of the given kind.
func (m *Metrics) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.jobsStarted.WithLabelValues(kind).Inc()
}

// JobFinished records the outcome of a job: its duration, how many cards it
// appended and whether it failed.
func (m *Metrics) JobFinished(kind string, d time.Duration, produced int, err error) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.jobsFailed.WithLabelValues(kind).Inc()
		return
	}
	m.cardsProduced.WithLabelValues(kind).Add(float64(produced))
}

// SetActiveSessions records the number of live factory cache sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
