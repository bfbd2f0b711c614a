// Package types defines the JSON envelope for every response the gateway
// authors itself.
//
// Two shapes exist. Success responses wrap their payload:
//
//	{"success": true, "data": {"backendUrl": "http://localhost:3001"}}
//
// Failures carry an error object instead:
//
//	{"success": false, "error": {"code": "BACKEND_UNAVAILABLE", "message": "..."}}
//
// Validation failures omit the code field entirely; clients key off the
// status code and message. The envelope applies only to endpoints the
// gateway answers on its own (the backend config endpoint, rate limiting,
// panic recovery, the 502 produced when the backend is unreachable).
// Responses relayed from the configured backend bypass this package: the
// forwarder copies status, headers, and body byte for byte.
package types
