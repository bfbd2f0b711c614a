// Package logging builds the process logger from configuration.
//
// The logger wraps log/slog: the configuration selects the minimum level,
// the output format (json or text), and whether source locations are
// attached. Install makes the configured logger the slog default so every
// component that logs via slog.Default() shares one handler.
//
// Context helpers carry the request ID, the forwarding target, and trace
// identifiers through a request's lifetime; the *Context logging methods
// extract them automatically.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//		Level:  cfg.Telemetry.Logging.Level,
//		Format: cfg.Telemetry.Logging.Format,
//	})
//	if err != nil {
//		return err
//	}
//	logger.Install()
package logging
