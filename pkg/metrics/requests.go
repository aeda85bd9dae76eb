package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records outcomes for calls issued against the remote
// storefront API, plus the session liveness probe.
type RequestMetrics struct {
	duration      *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	probeOutcomes *prometheus.CounterVec
}

// NewRequestMetrics registers the API client metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of remote API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Remote API calls by method and outcome.",
	}, []string{"method", "outcome"})
	probeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_probe_total",
		Help: "Session liveness probe results.",
	}, []string{"outcome"})
	reg.MustRegister(duration, requests, probeOutcomes)
	return &RequestMetrics{
		duration:      duration,
		requests:      requests,
		probeOutcomes: probeOutcomes,
	}
}

// ObserveRequest records a completed API call.
func (m *RequestMetrics) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(method)).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// ObserveProbe records a session probe outcome (ok, banned, expired, transient).
func (m *RequestMetrics) ObserveProbe(outcome string) {
	if m == nil || m.probeOutcomes == nil {
		return
	}
	m.probeOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	label := strings.TrimSpace(strings.ToLower(value))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}
