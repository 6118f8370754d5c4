package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector tracks request and operation metrics via Prometheus.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	votesTotal       *prometheus.CounterVec
	feedPagesTotal   prometheus.Counter
	operationLatency *prometheus.HistogramVec
}

// NewMetricsCollector registers the forum's collectors on reg. Passing
// prometheus.NewRegistry in tests keeps collectors from colliding on the
// default registry.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftwood_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		votesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "driftwood_votes_total",
			Help: "Votes cast by subject type.",
		}, []string{"subject"}),
		feedPagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "driftwood_feed_pages_total",
			Help: "Feed pages served.",
		}),
		operationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "driftwood_operation_duration_seconds",
			Help:    "Latency of named operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(mc.requestsTotal, mc.votesTotal, mc.feedPagesTotal, mc.operationLatency)
	return mc
}

func (mc *MetricsCollector) ObserveRequest(route string, status string) {
	mc.requestsTotal.WithLabelValues(route, status).Inc()
}

func (mc *MetricsCollector) ObserveVote(subject string) {
	mc.votesTotal.WithLabelValues(subject).Inc()
}

func (mc *MetricsCollector) ObserveFeedPage() {
	mc.feedPagesTotal.Inc()
}

func (mc *MetricsCollector) ObserveOperation(operation string, duration time.Duration) {
	mc.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}
