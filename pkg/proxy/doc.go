// Package proxy implements the forwarding gateway: the unit that intercepts
// backend-bound requests, resolves the current backend origin, and relays
// the exchange between the mail frontend and the backend.
//
// A request is intercepted iff its path is /api, starts with /api/, or is
// exactly /health. Everything else belongs to the host the gateway is
// mounted in (static files, the config endpoint, local probes).
//
// The backend origin is resolved with Store.Read() freshly on every
// forwarded request. It is never captured at construction and never cached
// between requests, so a write to /config/backend takes effect on the very
// next forward without any restart or rewiring. This is the load-bearing
// property of the whole design.
//
// The same Gateway serves all three deployment shapes: the standalone
// server, the dev-server middleware, and the embedded desktop listener all
// mount one Gateway via Handler() or Middleware(next).
package proxy
