// Package server hosts the gateway in its three deployment shapes.
//
// Server is the standalone HTTP server: it mounts the gateway middleware in
// front of a mux that serves the config endpoint, local probe endpoints,
// metrics, and the static frontend bundle. DevProxy replaces static serving
// during development by relaying non-intercepted paths to the frontend dev
// server. Embedded is the in-process variant for the desktop shell, with a
// fixed loopback address and a backend-change callback.
//
// All three mount the same proxy.Gateway. The middleware chain, outermost
// first: recovery, request ID, logging, CORS, gateway, mux.
package server
