package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionResults *prometheus.CounterVec
	TransactionAmount  prometheus.Histogram

	// Event delivery metrics
	EventsPublished    *prometheus.CounterVec
	PublishAttempts    *prometheus.CounterVec
	EventsDeadLettered *prometheus.CounterVec
	DeadLetterReplays  *prometheus.CounterVec
	DispatchQueueDepth prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_transaction_results_total",
				Help: "Terminal transaction outcomes by final status",
			},
			[]string{"status"},
		),
		TransactionAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gotransact_transaction_amount_abs",
			Help:    "Absolute amounts of completed transactions",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_events_published_total",
				Help: "Result events delivered to the broker",
			},
			[]string{"topic"},
		),
		PublishAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_publish_attempts_total",
				Help: "Broker send attempts by outcome",
			},
			[]string{"topic", "outcome"},
		),
		EventsDeadLettered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_events_dead_lettered_total",
				Help: "Result events persisted to the dead-letter store",
			},
			[]string{"topic"},
		),
		DeadLetterReplays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_dead_letter_replays_total",
				Help: "Dead-letter redelivery outcomes",
			},
			[]string{"outcome"},
		),
		DispatchQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gotransact_dispatch_queue_depth",
			Help: "Result events waiting for a publisher worker",
		}),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_cache_lookups_total",
				Help: "Balance cache lookups by result",
			},
			[]string{"result"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransact_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
