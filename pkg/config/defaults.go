package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress     = "127.0.0.1:8025"
	DefaultEmbeddedAddress   = "127.0.0.1:8125"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxHeaderBytes    = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled          = true
	DefaultCORSMaxAge           = 3600 // 1 hour
	DefaultCORSAllowCredentials = false

	// Rate limit defaults
	DefaultRateLimitEnabled = true
	DefaultRateLimitRPS     = 5.0
	DefaultRateLimitBurst   = 10

	// Backend defaults
	DefaultBackendStorePath          = "data/backend.json"
	DefaultBackendWatchDebounce      = 200 * time.Millisecond
	DefaultClientMaxIdleConns        = 100
	DefaultClientMaxIdleConnsPerHost = 32
	DefaultClientIdleConnTimeout     = 90 * time.Second

	// Frontend defaults
	DefaultFrontendIndexFile = "index.html"

	// History defaults
	DefaultHistoryEnabled              = true
	DefaultHistoryBackend              = "sqlite"
	DefaultHistorySQLitePath           = "data/history.db"
	DefaultHistorySQLiteMaxOpenConns   = 10
	DefaultHistorySQLiteMaxIdleConns   = 5
	DefaultHistorySQLiteWALMode        = true
	DefaultHistorySQLiteBusyTimeout    = 5 * time.Second
	DefaultHistoryRecorderAsyncBuffer  = 1000
	DefaultHistoryRecorderWriteTimeout = 5 * time.Second
	DefaultHistoryRecorderMaxFieldLen  = 500
	DefaultHistoryRetentionDays        = 30
	DefaultHistoryRetentionSchedule    = "0 3 * * *"
	DefaultHistoryRetentionArchivePath = "data/archives/"
	DefaultHistoryQueryDefaultLimit    = 100
	DefaultHistoryQueryMaxLimit        = 1000
	DefaultHistoryQueryTimeout         = 30 * time.Second
	DefaultHistoryExportJSONPretty     = true
	DefaultHistoryExportCSVHeader      = true
	DefaultHistoryExportMaxSize        = 1000000

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "mercator"
	DefaultMetricsSubsystem   = "mercury"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingExporter    = "otlp"
	DefaultTracingServiceName = "mercator-mercury"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/internal/health"
	DefaultReadinessPath      = "/internal/ready"
	DefaultVersionPath        = "/internal/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultRequestDurationBuckets are the histogram buckets for request
// duration in seconds. Forwarded mail traffic spans quick metadata fetches
// and multi-second attachment transfers, so the range is wide.
var DefaultRequestDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.EmbeddedAddress == "" {
		cfg.Server.EmbeddedAddress = DefaultEmbeddedAddress
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	applyCORSDefaults(cfg)
	applyRateLimitDefaults(cfg)

	// Backend defaults
	if cfg.Backend.StorePath == "" {
		cfg.Backend.StorePath = DefaultBackendStorePath
	}
	if cfg.Backend.FrontendOrigin == "" {
		cfg.Backend.FrontendOrigin = "http://" + cfg.Server.ListenAddress
	}
	if cfg.Backend.WatchDebounce == 0 {
		cfg.Backend.WatchDebounce = DefaultBackendWatchDebounce
	}
	if cfg.Backend.Client.MaxIdleConns == 0 {
		cfg.Backend.Client.MaxIdleConns = DefaultClientMaxIdleConns
	}
	if cfg.Backend.Client.MaxIdleConnsPerHost == 0 {
		cfg.Backend.Client.MaxIdleConnsPerHost = DefaultClientMaxIdleConnsPerHost
	}
	if cfg.Backend.Client.IdleConnTimeout == 0 {
		cfg.Backend.Client.IdleConnTimeout = DefaultClientIdleConnTimeout
	}
	// Client.Timeout stays zero unless configured: forwarded streams carry
	// no gateway-imposed deadline.

	// Frontend defaults
	if cfg.Frontend.IndexFile == "" {
		cfg.Frontend.IndexFile = DefaultFrontendIndexFile
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.SQLite.Path == "" {
		cfg.History.SQLite.Path = DefaultHistorySQLitePath
	}
	if cfg.History.SQLite.MaxOpenConns == 0 {
		cfg.History.SQLite.MaxOpenConns = DefaultHistorySQLiteMaxOpenConns
	}
	if cfg.History.SQLite.MaxIdleConns == 0 {
		cfg.History.SQLite.MaxIdleConns = DefaultHistorySQLiteMaxIdleConns
	}
	if cfg.History.SQLite.BusyTimeout == 0 {
		cfg.History.SQLite.BusyTimeout = DefaultHistorySQLiteBusyTimeout
	}
	if cfg.History.Recorder.AsyncBuffer == 0 {
		cfg.History.Recorder.AsyncBuffer = DefaultHistoryRecorderAsyncBuffer
	}
	if cfg.History.Recorder.WriteTimeout == 0 {
		cfg.History.Recorder.WriteTimeout = DefaultHistoryRecorderWriteTimeout
	}
	if len(cfg.History.Recorder.RedactHeaders) == 0 {
		cfg.History.Recorder.RedactHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}
	}
	if cfg.History.Recorder.MaxFieldLength == 0 {
		cfg.History.Recorder.MaxFieldLength = DefaultHistoryRecorderMaxFieldLen
	}
	if cfg.History.Retention.Days == 0 {
		cfg.History.Retention.Days = DefaultHistoryRetentionDays
	}
	if cfg.History.Retention.PruneSchedule == "" {
		cfg.History.Retention.PruneSchedule = DefaultHistoryRetentionSchedule
	}
	if cfg.History.Retention.ArchivePath == "" {
		cfg.History.Retention.ArchivePath = DefaultHistoryRetentionArchivePath
	}
	if cfg.History.Query.DefaultLimit == 0 {
		cfg.History.Query.DefaultLimit = DefaultHistoryQueryDefaultLimit
	}
	if cfg.History.Query.MaxLimit == 0 {
		cfg.History.Query.MaxLimit = DefaultHistoryQueryMaxLimit
	}
	if cfg.History.Query.Timeout == 0 {
		cfg.History.Query.Timeout = DefaultHistoryQueryTimeout
	}
	if cfg.History.Export.MaxExportSize == 0 {
		cfg.History.Export.MaxExportSize = DefaultHistoryExportMaxSize
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = DefaultRequestDurationBuckets
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if !cfg.Telemetry.Tracing.OTLP.Insecure && cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cfg *Config) {
	cors := &cfg.Server.CORS

	// An untouched CORS section defaults to enabled; once any field is set
	// the enabled flag is taken at face value.
	if !cors.Enabled {
		hasAnyConfig := len(cors.AllowedOrigins) > 0 ||
			len(cors.AllowedMethods) > 0 ||
			len(cors.AllowedHeaders) > 0 ||
			len(cors.ExposedHeaders) > 0 ||
			cors.MaxAge > 0

		if !hasAnyConfig {
			cors.Enabled = DefaultCORSEnabled
		}
	}

	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}

// applyRateLimitDefaults applies default values to rate limit configuration,
// using the same convention as CORS for the enabled flag.
func applyRateLimitDefaults(cfg *Config) {
	rl := &cfg.Server.RateLimit

	if !rl.Enabled {
		hasAnyConfig := rl.RequestsPerSecond > 0 || rl.Burst > 0
		if !hasAnyConfig {
			rl.Enabled = DefaultRateLimitEnabled
		}
	}

	if rl.RequestsPerSecond == 0 {
		rl.RequestsPerSecond = DefaultRateLimitRPS
	}
	if rl.Burst == 0 {
		rl.Burst = DefaultRateLimitBurst
	}
}
