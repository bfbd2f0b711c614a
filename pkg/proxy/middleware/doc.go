// Package middleware provides the HTTP middleware chain for the gateway
// hosts: panic recovery, request ID assignment, request logging, CORS, and
// rate limiting for the reconfiguration endpoint.
//
// Order matters. Hosts mount recovery outermost, then request ID, then
// logging, so a panic is caught with the request ID already in context and
// every request is logged exactly once. Rate limiting applies only to the
// handler it wraps, never to forwarded traffic.
package middleware
