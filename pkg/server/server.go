package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/history/recorder"
	"mercator-hq/mercury/pkg/proxy"
	"mercator-hq/mercury/pkg/proxy/middleware"
	"mercator-hq/mercury/pkg/telemetry/health"
	"mercator-hq/mercury/pkg/telemetry/metrics"
	"mercator-hq/mercury/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary on the version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the standalone gateway HTTP server.
type Server struct {
	config        *config.Config
	store         backend.Store
	gateway       *proxy.Gateway
	configHandler *proxy.ConfigHandler
	checker       *health.Checker
	metrics       *metrics.Collector
	recorder      *recorder.Recorder
	build         BuildInfo

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a standalone server around the given store. The gateway
// and the config endpoint share that store, which is what makes a POST to
// /config/backend take effect on the next forwarded request.
func NewServer(cfg *config.Config, store backend.Store) *Server {
	client := proxy.NewClient(cfg.Backend.Client)

	return &Server{
		config:        cfg,
		store:         store,
		gateway:       proxy.NewGateway(store, client, cfg.Backend.FrontendOrigin),
		configHandler: proxy.NewConfigHandler(store),
		checker:       health.New(cfg.Telemetry.Health.CheckTimeout),
		shutdownChan:  make(chan struct{}),
	}
}

// SetMetrics attaches a metrics collector to the server and its gateway.
func (s *Server) SetMetrics(c *metrics.Collector) {
	s.metrics = c
	s.gateway.SetMetrics(c)
	s.configHandler.SetMetrics(c)
}

// SetRecorder attaches a traffic recorder to the gateway.
func (s *Server) SetRecorder(r *recorder.Recorder) {
	s.recorder = r
	s.gateway.SetRecorder(r)
}

// SetBuildInfo sets the values reported by the version endpoint.
func (s *Server) SetBuildInfo(info BuildInfo) {
	s.build = info
}

// Checker returns the readiness checker so callers can register component
// checks, such as history storage connectivity.
func (s *Server) Checker() *health.Checker {
	return s.checker
}

// Gateway returns the gateway, for hosts that mount it themselves.
func (s *Server) Gateway() *proxy.Gateway {
	return s.gateway
}

// Start starts the HTTP server and blocks until shutdown is triggered by
// the context, a SIGINT/SIGTERM, or a server error.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	// Read and write timeouts stay at zero: mailbox sync responses stream
	// for as long as the backend keeps them open. ReadHeaderTimeout alone
	// defends the accept loop.
	s.httpServer = &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		MaxHeaderBytes:    s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server",
			"address", s.config.Server.ListenAddress,
			"backend", s.store.Read(),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds the complete handler: the middleware chain, the gateway,
// and the host mux behind it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Reconfiguration endpoint, rate limited per client. The limiter wraps
	// only this route; forwarded traffic never passes through it.
	rl := middleware.NewRateLimiter(s.convertRateLimitConfig())
	mux.Handle("/config/backend", rl.Middleware(s.configHandler))

	// Local endpoints live under /internal/ because /health belongs to the
	// proxied backend.
	if s.config.Telemetry.Health.Enabled {
		s.checker.RegisterRoutes(mux,
			s.config.Telemetry.Health.LivenessPath,
			s.config.Telemetry.Health.ReadinessPath,
			s.config.Telemetry.Health.VersionPath,
			s.build.Version, s.build.Commit, s.build.BuildTime,
		)
	}

	if s.config.Telemetry.Metrics.Enabled && s.metrics != nil {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	mux.Handle("/", s.frontendHandler())

	var handler http.Handler = s.gateway.Middleware(mux)
	handler = middleware.CORSMiddleware(s.convertCORSConfig())(handler)
	handler = middleware.LoggingMiddleware(handler)
	if s.config.Telemetry.Tracing.Enabled {
		handler = tracing.HTTPMiddleware(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// frontendHandler picks the frontend delivery mode: dev-server relay when a
// dev upstream is configured, static bundle when a directory is, 404
// otherwise.
func (s *Server) frontendHandler() http.Handler {
	if s.config.Frontend.DevUpstream != "" {
		dev, err := NewDevProxy(s.config.Frontend.DevUpstream)
		if err != nil {
			slog.Error("invalid dev upstream, frontend disabled",
				"dev_upstream", s.config.Frontend.DevUpstream,
				"error", err,
			)
			return http.NotFoundHandler()
		}
		return dev
	}

	if s.config.Frontend.StaticDir != "" {
		return NewStaticHandler(s.config.Frontend.StaticDir, s.config.Frontend.IndexFile)
	}

	return http.NotFoundHandler()
}

// convertCORSConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) convertCORSConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          s.config.Server.CORS.Enabled,
		AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
		AllowedMethods:   s.config.Server.CORS.AllowedMethods,
		AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
		ExposedHeaders:   s.config.Server.CORS.ExposedHeaders,
		MaxAge:           s.config.Server.CORS.MaxAge,
		AllowCredentials: s.config.Server.CORS.AllowCredentials,
	}
}

// convertRateLimitConfig converts config.RateLimitConfig to middleware.RateLimitConfig.
func (s *Server) convertRateLimitConfig() *middleware.RateLimitConfig {
	return &middleware.RateLimitConfig{
		Enabled:           s.config.Server.RateLimit.Enabled,
		RequestsPerSecond: s.config.Server.RateLimit.RequestsPerSecond,
		Burst:             s.config.Server.RateLimit.Burst,
	}
}
