// Package health provides liveness and readiness probes for the gateway.
//
// The probe endpoints live under /internal/ rather than at /health, because
// /health is part of the intercepted path set and is forwarded to the
// backend like any API call. Liveness reports that the process is up;
// readiness aggregates registered component checks (history storage, and
// optionally a backend reachability probe) and answers 503 when any of
// them fail.
package health
