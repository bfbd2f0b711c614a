// Package history defines the traffic record model and storage contracts
// for the gateway's forward history.
//
// Every proxied request produces one TrafficRecord noting which backend was
// resolved, the relayed status code, and whether the forward succeeded or
// degraded to a 502. Records are written asynchronously by the recorder
// subpackage so a slow disk never stalls live traffic, persisted by the
// storage subpackage (SQLite or in-memory), aged out by retention, and
// rendered by export.
package history
