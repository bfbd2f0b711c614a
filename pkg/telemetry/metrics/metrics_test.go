package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/mercury/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestCollector(t *testing.T, enabled bool) *Collector {
	t.Helper()
	cfg := &config.MetricsConfig{
		Enabled:   enabled,
		Namespace: "mercator",
		Subsystem: "mercury",
	}
	return NewCollector(cfg, prometheus.NewRegistry())
}

func gatherNames(t *testing.T, c *Collector) map[string]bool {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	return names
}

func TestNewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	c := NewCollector(cfg, nil)

	if cfg.Namespace != "mercator" {
		t.Errorf("Namespace default = %q, want mercator", cfg.Namespace)
	}
	if cfg.Subsystem != "mercury" {
		t.Errorf("Subsystem default = %q, want mercury", cfg.Subsystem)
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		t.Error("RequestDurationBuckets default not applied")
	}
	if c.Registry() == nil {
		t.Error("Registry() returned nil")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordHTTPRequest("api", "GET", 200, 15*time.Millisecond)
	c.RecordHTTPRequest("config", "POST", 400, time.Millisecond)

	names := gatherNames(t, c)
	if !names["mercator_mercury_requests_total"] {
		t.Error("requests_total not registered after recording")
	}
	if !names["mercator_mercury_request_duration_seconds"] {
		t.Error("request_duration_seconds not registered after recording")
	}
}

func TestRecordForward(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordForward("GET", OutcomeForwarded, 40*time.Millisecond)
	c.RecordForward("POST", OutcomeBackendUnavailable, 2*time.Millisecond)
	c.RecordForwardBytes("request", 1024)
	c.RecordForwardBytes("response", 4096)
	c.RecordReconfiguration("api")

	names := gatherNames(t, c)
	for _, want := range []string{
		"mercator_mercury_forwards_total",
		"mercator_mercury_forward_upstream_seconds",
		"mercator_mercury_forward_body_bytes_total",
		"mercator_mercury_backend_reconfigurations_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered after recording", want)
		}
	}
}

func TestRecordForwardBytesIgnoresZero(t *testing.T) {
	c := newTestCollector(t, true)

	c.RecordForwardBytes("request", 0)
	c.RecordForwardBytes("response", -5)

	names := gatherNames(t, c)
	if names["mercator_mercury_forward_body_bytes_total"] {
		t.Error("byte counter has series despite only zero and negative counts")
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	c := newTestCollector(t, false)

	c.RecordHTTPRequest("api", "GET", 200, time.Millisecond)
	c.RecordForward("GET", OutcomeForwarded, time.Millisecond)
	c.RecordForwardBytes("request", 100)
	c.RecordReconfiguration("file")

	names := gatherNames(t, c)
	if names["mercator_mercury_requests_total"] || names["mercator_mercury_forwards_total"] {
		t.Error("disabled collector recorded metric series")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := newTestCollector(t, true)
	c.RecordForward("GET", OutcomeForwarded, 10*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics endpoint status = %d, want 200", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), "mercator_mercury_forwards_total") {
		t.Error("exposition output missing forwards_total")
	}
}
