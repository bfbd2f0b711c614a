package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/history/recorder"
	"mercator-hq/mercury/pkg/proxy"
	"mercator-hq/mercury/pkg/proxy/middleware"
)

// Embedded runs the gateway inside another process, typically the desktop
// shell. It binds a fixed loopback address, serves the same gateway and
// config endpoint as the standalone server, and notifies the host through
// OnBackendChange when the store file changes underneath it.
type Embedded struct {
	config        *config.Config
	store         backend.Store
	gateway       *proxy.Gateway
	configHandler *proxy.ConfigHandler
	logger        *slog.Logger

	onBackendChange func(origin string)

	listener   net.Listener
	httpServer *http.Server
	watcher    *backend.Watcher
	mu         sync.Mutex
	running    bool
}

// NewEmbedded creates an embedded gateway host. It does not bind anything
// until Start.
func NewEmbedded(cfg *config.Config, store backend.Store) *Embedded {
	client := proxy.NewClient(cfg.Backend.Client)

	return &Embedded{
		config:        cfg,
		store:         store,
		gateway:       proxy.NewGateway(store, client, cfg.Backend.FrontendOrigin),
		configHandler: proxy.NewConfigHandler(store),
		logger:        slog.Default().With("component", "server.embedded"),
	}
}

// OnBackendChange registers a callback invoked with the new origin whenever
// the store file changes on disk. Must be called before Start.
func (e *Embedded) OnBackendChange(fn func(origin string)) {
	e.onBackendChange = fn
}

// SetRecorder attaches a traffic recorder to the gateway.
func (e *Embedded) SetRecorder(r *recorder.Recorder) {
	e.gateway.SetRecorder(r)
}

// Start binds the embedded address and begins serving. It returns once the
// listener is accepting, so the host can read Addr() immediately after.
func (e *Embedded) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("embedded gateway is already running")
	}

	addr := e.config.Server.EmbeddedAddress
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind embedded address %s: %w", addr, err)
	}
	e.listener = listener

	e.httpServer = &http.Server{
		Handler:           e.handler(),
		ReadHeaderTimeout: e.config.Server.ReadHeaderTimeout,
		IdleTimeout:       e.config.Server.IdleTimeout,
		MaxHeaderBytes:    e.config.Server.MaxHeaderBytes,
	}

	go func() {
		if err := e.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			e.logger.Error("embedded server error", "error", err)
		}
	}()

	if err := e.startWatcher(ctx); err != nil {
		e.logger.Warn("store watcher unavailable, backend changes will not notify the shell",
			"error", err,
		)
	}

	e.running = true
	e.logger.Info("embedded gateway started",
		"address", listener.Addr().String(),
		"backend", e.store.Read(),
	)
	return nil
}

// startWatcher wires the file watcher to the host callback. It only applies
// to file-backed stores with watching enabled.
func (e *Embedded) startWatcher(ctx context.Context) error {
	fileStore, ok := e.store.(*backend.FileStore)
	if !ok || !e.config.Backend.Watch || e.onBackendChange == nil {
		return nil
	}

	watcher, err := backend.NewWatcher(fileStore, e.config.Backend.WatchDebounce, e.logger)
	if err != nil {
		return err
	}
	e.watcher = watcher

	go func() {
		if err := watcher.Watch(ctx, e.onBackendChange); err != nil {
			e.logger.Warn("store watcher stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or empty before Start.
func (e *Embedded) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Shutdown stops the watcher and drains the HTTP server.
func (e *Embedded) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	if e.watcher != nil {
		e.watcher.Stop()
	}

	if err := e.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("embedded shutdown error: %w", err)
	}

	e.logger.Info("embedded gateway stopped")
	return nil
}

// handler builds the embedded routing: gateway in front, config endpoint
// and static bundle behind. Probe and metrics endpoints are omitted; the
// shell owns process health.
func (e *Embedded) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/config/backend", e.configHandler)

	if e.config.Frontend.StaticDir != "" {
		mux.Handle("/", NewStaticHandler(e.config.Frontend.StaticDir, e.config.Frontend.IndexFile))
	} else {
		mux.Handle("/", http.NotFoundHandler())
	}

	var handler http.Handler = e.gateway.Middleware(mux)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)
	return handler
}
