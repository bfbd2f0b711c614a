package metrics

import (
	"time"

	"mercator-hq/mercury/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in Mercury.
// It manages metric registration and provides a unified interface for
// recording metrics across all components.
//
// Every label set is a closed enumeration (route class, HTTP method,
// forward outcome), so cardinality is bounded by construction.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Inbound HTTP request metrics
	requestMetrics *RequestMetrics

	// Outbound forward metrics
	forwardMetrics *ForwardMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "mercator",
//		Subsystem: "mercury",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "mercator"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "mercury"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Most gateway work is connection plumbing; the long tail is the
		// backend's latency on large mailbox operations.
		cfg.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.forwardMetrics = NewForwardMetrics(cfg, registry)

	return c
}

// RecordHTTPRequest records metrics for a completed inbound request.
//
// Parameters:
//   - route: route class ("api", "health", "config", "local", "static")
//   - method: HTTP method
//   - status: response status code
//   - duration: total handling duration
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordRequest(route, method, status, duration)
}

// RecordForward records metrics for a completed forward attempt.
//
// Parameters:
//   - method: HTTP method of the forwarded request
//   - outcome: "forwarded" or "backend_unavailable"
//   - upstream: time spent waiting on the backend
func (c *Collector) RecordForward(method, outcome string, upstream time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.forwardMetrics.RecordForward(method, outcome, upstream)
}

// RecordForwardBytes records body bytes relayed through the gateway.
//
// Parameters:
//   - direction: "request" or "response"
//   - n: byte count
func (c *Collector) RecordForwardBytes(direction string, n int64) {
	if !c.config.Enabled {
		return
	}

	c.forwardMetrics.RecordBytes(direction, n)
}

// RecordReconfiguration records a backend location change.
//
// Parameters:
//   - source: what changed the location ("api", "file", "cli")
func (c *Collector) RecordReconfiguration(source string) {
	if !c.config.Enabled {
		return
	}

	c.forwardMetrics.RecordReconfiguration(source)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", collector.Handler())
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
