package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute helpers.
//
// Standard keys follow OpenTelemetry semantic conventions (http.*);
// gateway-specific keys use the "mercator.*" namespace.

// Attribute keys used on gateway spans.
const (
	// Request attributes
	AttrRequestID = "mercator.request_id"
	AttrRoute     = "mercator.route"

	// Forward attributes
	AttrBackend        = "mercator.backend"
	AttrForwardOutcome = "mercator.forward.outcome"

	// HTTP attributes
	AttrHTTPMethod = "http.method"
	AttrHTTPPath   = "http.target"
	AttrHTTPStatus = "http.status_code"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// SetRequestAttributes sets inbound request attributes on a span.
func SetRequestAttributes(span trace.Span, requestID, route, method, path string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRoute, route),
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPPath, path),
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	span.SetAttributes(attrs...)
}

// SetForwardAttributes sets forwarding attributes on a span.
func SetForwardAttributes(span trace.Span, backend, outcome string) {
	span.SetAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrForwardOutcome, outcome),
	)
}

// SetHTTPStatus sets the response status code on a span.
func SetHTTPStatus(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(AttrHTTPStatus, status))
}
