// Package tracing provides OpenTelemetry distributed tracing for the
// gateway.
//
// When enabled, the Tracer exports spans over OTLP/gRPC and installs a W3C
// Trace Context propagator. The forwarding path injects the current span
// context into outbound requests, so a trace started in the mail frontend
// continues through the gateway into the backend. When disabled, New
// returns a noop tracer and every helper degrades to a no-op.
//
// Sampling is parent-based: the frontend's sampling decision wins when
// present, otherwise the configured strategy (always, never, or trace-ID
// ratio) applies.
package tracing
