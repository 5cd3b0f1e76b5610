package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsConsumed      *prometheus.CounterVec
	EventsRejected      prometheus.Counter
	EventsRequeued      prometheus.Counter
	NotificationsFanned prometheus.Counter
	FanoutFailures      prometheus.Counter
	FanoutLatency       prometheus.Histogram
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	CacheInvalidations  prometheus.Counter
	WSConnections       prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_events_consumed_total",
			Help: "Total number of bus messages processed, labelled by event type.",
		}, []string{"type"}),

		EventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bus_events_rejected_total",
			Help: "Total number of poison messages rejected without requeue.",
		}),

		EventsRequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bus_events_requeued_total",
			Help: "Total number of messages negatively acknowledged with requeue.",
		}),

		NotificationsFanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_fanned_out_total",
			Help: "Total number of notification records created by the fan-out engine.",
		}),

		FanoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_fanout_failures_total",
			Help: "Total number of per-user fan-out writes that failed and were skipped.",
		}),

		FanoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_fanout_seconds",
			Help:    "Latency from event receipt to per-user record write.",
			Buckets: prometheus.DefBuckets,
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of read requests served from the cache.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of read requests that fell through to the store.",
		}),

		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache scope invalidations triggered by mutations.",
		}),

		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Current number of live websocket connections.",
		}),
	}

	reg.MustRegister(
		m.EventsConsumed,
		m.EventsRejected,
		m.EventsRequeued,
		m.NotificationsFanned,
		m.FanoutFailures,
		m.FanoutLatency,
		m.CacheHits,
		m.CacheMisses,
		m.CacheInvalidations,
		m.WSConnections,
	)

	return m
}

// ConsumerHooks returns the metric callbacks expected by consumer.MetricHooks.
// Centralises the prometheus observation calls so the engine stays metrics-agnostic.
func (m *Metrics) ConsumerHooks() (
	onFanned func(latency time.Duration),
	onFailed func(),
) {
	onFanned = func(latency time.Duration) {
		m.NotificationsFanned.Inc()
		m.FanoutLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.FanoutFailures.Inc()
	}
	return
}

// CacheHooks returns the hit/miss/invalidation callbacks used by the service layer.
func (m *Metrics) CacheHooks() (onHit, onMiss, onInvalidate func()) {
	return m.CacheHits.Inc, m.CacheMisses.Inc, m.CacheInvalidations.Inc
}
