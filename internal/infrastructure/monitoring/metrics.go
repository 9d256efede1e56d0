package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter
}

type SessionMetrics struct {
	Total    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

type EngagementMetrics struct {
	RecordedTotal *prometheus.CounterVec
	RejectedTotal *prometheus.CounterVec
}

type HealthMetrics struct {
	Score           prometheus.Histogram
	CustomersByTier *prometheus.GaugeVec
	SweepRunsTotal  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
}

type ConsumerMetrics struct {
	MessagesTotal *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status_code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		RateLimited: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "http_requests_rate_limited_total",
				Help: "Requests rejected with 429 by the rate limiter.",
			},
		),
	}

	Sessions = SessionMetrics{
		Total: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_db_sessions_total",
				Help: "Scoped database sessions by role (write, read) and outcome.",
			},
			[]string{"role", "outcome"},
		),
		Duration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_health_db_session_duration_seconds",
				Help:    "Time a scoped database session was held.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"role"},
		),
	}

	Engagement = EngagementMetrics{
		RecordedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_events_recorded_total",
				Help: "Engagement events persisted, by kind.",
			},
			[]string{"kind"},
		),
		RejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_events_rejected_total",
				Help: "Engagement events rejected by validation, by kind and reason.",
			},
			[]string{"kind", "reason"},
		),
	}

	Health = HealthMetrics{
		Score: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "customer_health_score",
				Help:    "Distribution of computed composite health scores.",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		CustomersByTier: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "customer_health_customers_by_tier",
				Help: "Customers per risk tier as of the last sweep.",
			},
			[]string{"tier"},
		),
		SweepRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_sweep_runs_total",
				Help: "Health sweep job runs by status.",
			},
			[]string{"status"},
		),
		CacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_cache_lookups_total",
				Help: "Health report cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
	}

	Consumer = ConsumerMetrics{
		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_health_consumer_messages_total",
				Help: "Messages handled by the cache warmup consumer, by routing key and outcome.",
			},
			[]string{"routing_key", "outcome"},
		),
	}
)
