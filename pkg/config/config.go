package config

import "time"

// Config is the root configuration structure for Mercator Mercury.
// It contains all configuration sections for the gateway server, backend
// location store, frontend delivery, request history, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen addresses,
	// timeouts, CORS, and config-endpoint rate limiting.
	Server ServerConfig `yaml:"server"`

	// Backend contains configuration for the backend location store and the
	// outbound client used for forwarding.
	Backend BackendConfig `yaml:"backend"`

	// Frontend contains configuration for frontend delivery: the static
	// bundle directory in production and the dev server upstream during
	// development.
	Frontend FrontendConfig `yaml:"frontend"`

	// History contains configuration for recording and querying forwarded
	// request traffic.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing, and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the gateway HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port the standalone server listens on.
	// Format: "host:port" (e.g., "127.0.0.1:8025", "0.0.0.0:8025").
	// Default: "127.0.0.1:8025"
	ListenAddress string `yaml:"listen_address"`

	// EmbeddedAddress is the loopback address used when the gateway runs
	// embedded inside the desktop shell. The port is fixed so the shell can
	// point its window at it without negotiation.
	// Default: "127.0.0.1:8125"
	EmbeddedAddress string `yaml:"embedded_address"`

	// ReadHeaderTimeout bounds how long the server waits for request
	// headers. Bodies are never subject to a server-side deadline: uploads
	// stream to the backend for as long as they need.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`

	// RateLimit contains rate limiting for the backend config endpoint.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins (not recommended for production).
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "PUT", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Authorization", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials (cookies, auth headers)
	// are allowed in CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// RateLimitConfig contains rate limiting for the backend config endpoint.
// Forwarded traffic is never rate limited by the gateway.
type RateLimitConfig struct {
	// Enabled controls whether config-endpoint rate limiting is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained request rate allowed per client.
	// Default: 5
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of requests a client may send above the sustained
	// rate before being throttled.
	// Default: 10
	Burst int `yaml:"burst"`
}

// BackendConfig contains configuration for the backend location store and
// the forwarding client.
type BackendConfig struct {
	// StorePath is the file path for the persisted backend location
	// document.
	// Default: "data/backend.json"
	StorePath string `yaml:"store_path"`

	// FrontendOrigin is the origin presented to the backend in Origin and
	// Referer headers when the client supplied neither. Browser-served
	// deployments leave this empty and get "http://<listen_address>".
	FrontendOrigin string `yaml:"frontend_origin"`

	// Watch enables notification when the store file changes on disk, for
	// example when a second instance or an operator edits it.
	// Default: true
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period applied before a store change
	// notification fires.
	// Default: 200ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Client contains outbound HTTP client configuration for forwarding.
	Client BackendClientConfig `yaml:"client"`
}

// BackendClientConfig contains outbound HTTP client configuration.
type BackendClientConfig struct {
	// Timeout is the total round-trip budget for a forwarded request.
	// Zero means no gateway-imposed deadline: long-lived streams such as
	// mailbox sync connections stay open until one side closes.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size across all hosts.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the connection pool size per backend host.
	// Default: 32
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle pooled connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// FrontendConfig contains configuration for frontend delivery.
type FrontendConfig struct {
	// StaticDir is the directory holding the built frontend bundle. When
	// set, the standalone server serves it for every path the gateway does
	// not intercept. Unknown extensionless paths fall back to the index
	// file so client-side routing works on hard refresh.
	StaticDir string `yaml:"static_dir"`

	// IndexFile is the SPA entry point within StaticDir.
	// Default: "index.html"
	IndexFile string `yaml:"index_file"`

	// DevUpstream is the frontend dev server origin. When set, paths the
	// gateway does not intercept are proxied there instead of served from
	// StaticDir, preserving hot reload during development.
	// Example: "http://localhost:5173"
	DevUpstream string `yaml:"dev_upstream"`
}

// HistoryConfig contains configuration for recording forwarded traffic.
type HistoryConfig struct {
	// Enabled controls whether traffic recording is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend for traffic records.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder HistoryRecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains query configuration.
	Query QueryConfig `yaml:"query"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// HistoryRecorderConfig contains traffic recorder configuration.
type HistoryRecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer. When the
	// buffer is full records are dropped rather than stalling forwards.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// CaptureHeaders enables capturing request headers in records.
	// Default: false
	CaptureHeaders bool `yaml:"capture_headers"`

	// RedactHeaders lists headers whose values are replaced with "[REDACTED]"
	// when header capture is enabled. Matching is case-insensitive.
	// Default: ["Authorization", "Cookie", "Proxy-Authorization"]
	RedactHeaders []string `yaml:"redact_headers"`

	// MaxFieldLength is the maximum length for text fields before truncation.
	// Default: 500
	MaxFieldLength int `yaml:"max_field_length"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain traffic records.
	// Records older than this are eligible for deletion.
	// 0 means keep records forever (no pruning).
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete enables archiving records before deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory to store archived records.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// QueryConfig contains query configuration.
type QueryConfig struct {
	// DefaultLimit is the default number of records to return if not specified.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the maximum number of records that can be returned in a single query.
	// Default: 1000
	MaxLimit int `yaml:"max_limit"`

	// Timeout is the query execution timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV exports.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`

	// MaxExportSize is the maximum number of records per export.
	// Default: 1000000 (1 million)
	MaxExportSize int `yaml:"max_export_size"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "mercury"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active. When enabled,
	// forwarded requests carry trace context to the backend in the
	// traceparent header.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the trace collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "mercator-mercury"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint. The probe
	// paths live under /internal/ because /health belongs to the backend
	// and is forwarded like any intercepted path.
	// Default: "/internal/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/internal/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/internal/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// ProbeBackend includes backend reachability in readiness. Off by
	// default: the gateway is ready as soon as it can accept and route
	// requests, whether or not the backend is up at that moment.
	// Default: false
	ProbeBackend bool `yaml:"probe_backend"`
}
