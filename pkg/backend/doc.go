// Package backend is the single source of truth for the backend origin the
// gateway forwards to.
//
// The origin lives in a small JSON document on local disk:
//
//	{"backendUrl": "http://localhost:3001"}
//
// Reads resolve through a fixed fallback chain and never fail: the persisted
// file wins when present and well formed, otherwise the MERCURY_BACKEND_URL
// environment value captured at startup, otherwise the compiled-in default.
// A missing, unreadable, or malformed file is treated the same as an absent
// one; the gateway keeps forwarding on the fallback rather than surfacing
// storage trouble to the client.
//
// Writes validate, then replace the file atomically (write-to-temp, rename)
// so a concurrent read never observes a torn document. When the write to
// disk fails the accepted value still serves the rest of the session from
// memory and the failure is only logged; durability is best effort, request
// forwarding is not.
//
// Watcher reports changes to the store file, letting hosts react when the
// location is edited by another process or a second instance.
package backend
