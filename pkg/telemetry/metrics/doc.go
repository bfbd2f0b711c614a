// Package metrics provides Prometheus metrics for the gateway.
//
// The Collector owns a private registry and two metric groups: inbound
// request metrics (count and duration by route class) and forward metrics
// (outcome counts, upstream latency, relayed bytes, and backend
// reconfigurations). All label values come from closed enumerations so the
// series count stays bounded without any cardinality policing.
//
// Mount Collector.Handler() at the configured metrics path to expose the
// registry in Prometheus exposition format.
package metrics
