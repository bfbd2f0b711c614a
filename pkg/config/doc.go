// Package config provides configuration management for Mercator Mercury.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// A missing file yields a configuration built entirely from defaults: the
// gateway starts useful with zero setup, forwarding to the compiled-in
// backend origin until the first reconfiguration.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MERCURY_SECTION_FIELD.
// For example:
//
//   - MERCURY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - MERCURY_HISTORY_SQLITE_PATH overrides history.sqlite.path
//   - MERCURY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// MERCURY_BACKEND_URL is not a configuration override: it is the backend
// location fallback consumed by the store (see package backend) and takes
// effect only when no location has been persisted.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - server.listen_address: invalid address "8025": expected host:port
//	  - history.backend: invalid backend "postgres": must be 'sqlite' or 'memory'
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8025"
//
//	backend:
//	  store_path: "data/backend.json"
//
//	frontend:
//	  static_dir: "./dist"
//
//	history:
//	  enabled: true
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config
