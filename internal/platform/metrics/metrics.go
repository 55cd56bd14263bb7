package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec

	ConsensusDecided   prometheus.Counter
	EvaluationsDone    prometheus.Counter
	OutboxPublished    prometheus.Counter
	OutboxRelayFailure prometheus.Counter
}

func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	constLabels := prometheus.Labels{"service": serviceName}
	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status code.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status"}),
		httpDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ConsensusDecided: factory.NewCounter(prometheus.CounterOpts{
			Name:        "review_consensus_decided_total",
			Help:        "Consensus decisions recorded.",
			ConstLabels: constLabels,
		}),
		EvaluationsDone: factory.NewCounter(prometheus.CounterOpts{
			Name:        "review_evaluations_completed_total",
			Help:        "Evaluations completed by reviewers.",
			ConstLabels: constLabels,
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name:        "review_outbox_published_total",
			Help:        "Outbox rows published to the event bus.",
			ConstLabels: constLabels,
		}),
		OutboxRelayFailure: factory.NewCounter(prometheus.CounterOpts{
			Name:        "review_outbox_relay_failures_total",
			Help:        "Outbox relay cycles that ended in an error.",
			ConstLabels: constLabels,
		}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps a handler with request counting and latency observation.
// The route label is the registered pattern, not the raw URL, so cardinality
// stays bounded.
func (m *Metrics) Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		m.httpDurations.WithLabelValues(route, r.Method).Observe(time.Since(started).Seconds())
	}
}
