package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAdmitted = "admitted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Metrics counts intercepted requests by category and outcome.
type Metrics struct {
	requests   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Intercepted requests by operation category and outcome.",
		}, []string{"category", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"category"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Handler latency of admitted requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
	}

	reg.MustRegister(m.requests, m.rejections, m.latency)
	return m
}

func (m *Metrics) observeRejected(category string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(category, outcomeRejected).Inc()
	m.rejections.WithLabelValues(category).Inc()
}

func (m *Metrics) observeHandled(category string, status int, seconds float64) {
	if m == nil {
		return
	}
	outcome := outcomeAdmitted
	if status >= 500 {
		outcome = outcomeFailed
	}
	m.requests.WithLabelValues(category, outcome).Inc()
	m.latency.WithLabelValues(category).Observe(seconds)
}
