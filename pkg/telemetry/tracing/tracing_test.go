package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/mercury/pkg/config"
)

func TestNewDisabledReturnsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	ctx, span := tracer.Start(context.Background(), "test")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a valid span context")
	}
	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() on noop tracer error = %v", err)
	}
}

func TestNewNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) expected error")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{"always", SamplerAlways, 0, false},
		{"never", SamplerNever, 0, false},
		{"ratio valid", SamplerRatio, 0.1, false},
		{"ratio one", SamplerRatio, 1.0, false},
		{"ratio negative", SamplerRatio, -0.1, true},
		{"ratio above one", SamplerRatio, 1.5, true},
		{"unknown", "sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSamplingConfig(t *testing.T) {
	if err := ValidateSamplingConfig(SamplingConfig{Strategy: SamplerRatio, Ratio: 0.5}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := ValidateSamplingConfig(SamplingConfig{Strategy: "bogus"}); err == nil {
		t.Error("invalid strategy accepted")
	}
	if err := ValidateSamplingConfig(SamplingConfig{Strategy: SamplerRatio, Ratio: 2}); err == nil {
		t.Error("out-of-range ratio accepted")
	}
}

func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", true},
		{"valid not sampled", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00", true},
		{"wrong part count", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7", false},
		{"short trace id", "00-4bf92f35-00f067aa0ba902b7-01", false},
		{"non-hex", "00-4bf92f3577b34da6a3ce929d0e0e47zz-00f067aa0ba902b7-01", false},
		{"zero trace id", "00-00000000000000000000000000000000-00f067aa0ba902b7-01", false},
		{"zero parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTraceParent(tt.value); got != tt.want {
				t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestExtractInjectRoundTrip(t *testing.T) {
	// With no global SDK installed the propagator is still registered by
	// default as a noop; install the W3C propagator via a disabled tracer
	// plus manual extraction on a crafted header.
	req := httptest.NewRequest("GET", "/api/accounts", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := Extract(req.Context(), req.Header)

	out := make(http.Header)
	Inject(ctx, out)

	// A noop propagator produces nothing; a real one round-trips the
	// header. Either way the call must not panic and the context must be
	// usable.
	if ctx == nil {
		t.Fatal("Extract returned nil context")
	}
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID on empty context = %q, want empty", got)
	}
	if got := SpanID(context.Background()); got != "" {
		t.Errorf("SpanID on empty context = %q, want empty", got)
	}
	if IsSampled(context.Background()) {
		t.Error("IsSampled on empty context = true")
	}
}
