package metrics

import (
	"time"

	"mercator-hq/mercury/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Forward outcome label values.
const (
	// OutcomeForwarded marks a forward that received an upstream response,
	// whatever its status code.
	OutcomeForwarded = "forwarded"

	// OutcomeBackendUnavailable marks a forward that failed before any
	// upstream response and was answered with the 502 envelope.
	OutcomeBackendUnavailable = "backend_unavailable"
)

// ForwardMetrics tracks metrics for outbound forwards to the backend.
//
// Metrics:
//   - mercator_mercury_forwards_total: Forward count by method, outcome
//   - mercator_mercury_forward_upstream_seconds: Upstream round-trip histogram
//   - mercator_mercury_forward_body_bytes_total: Relayed body bytes by direction
//   - mercator_mercury_backend_reconfigurations_total: Backend location changes by source
type ForwardMetrics struct {
	forwardsTotal *prometheus.CounterVec

	upstreamDuration *prometheus.HistogramVec

	bodyBytesTotal *prometheus.CounterVec

	reconfigurationsTotal *prometheus.CounterVec
}

// NewForwardMetrics creates and registers forward metrics with the provided registry.
func NewForwardMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ForwardMetrics {
	fm := &ForwardMetrics{
		forwardsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forwards_total",
				Help:      "Total number of requests forwarded to the backend",
			},
			[]string{"method", "outcome"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forward_upstream_seconds",
				Help:      "Time spent waiting on the backend per forward",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"method"},
		),

		bodyBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forward_body_bytes_total",
				Help:      "Body bytes relayed through the gateway",
			},
			[]string{"direction"},
		),

		reconfigurationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_reconfigurations_total",
				Help:      "Backend location changes observed, by source",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		fm.forwardsTotal,
		fm.upstreamDuration,
		fm.bodyBytesTotal,
		fm.reconfigurationsTotal,
	)

	return fm
}

// RecordForward records a completed forward attempt.
func (fm *ForwardMetrics) RecordForward(method, outcome string, upstream time.Duration) {
	fm.forwardsTotal.WithLabelValues(method, outcome).Inc()
	fm.upstreamDuration.WithLabelValues(method).Observe(upstream.Seconds())
}

// RecordBytes records relayed body bytes in one direction.
func (fm *ForwardMetrics) RecordBytes(direction string, n int64) {
	if n > 0 {
		fm.bodyBytesTotal.WithLabelValues(direction).Add(float64(n))
	}
}

// RecordReconfiguration records a backend location change.
func (fm *ForwardMetrics) RecordReconfiguration(source string) {
	fm.reconfigurationsTotal.WithLabelValues(source).Inc()
}
