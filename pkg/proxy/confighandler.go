package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/proxy/types"
	"mercator-hq/mercury/pkg/telemetry/metrics"
)

// ConfigHandler serves the runtime reconfiguration endpoint. GET returns the
// backend the next forward would use; POST replaces it. The handler talks to
// the same store the gateway resolves from, so a successful POST is visible
// to the very next forwarded request.
type ConfigHandler struct {
	store   backend.Store
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewConfigHandler creates the handler for /config/backend.
func NewConfigHandler(store backend.Store) *ConfigHandler {
	return &ConfigHandler{
		store:  store,
		logger: slog.Default().With("component", "proxy.config"),
	}
}

// SetMetrics attaches a metrics collector. Each accepted reconfiguration
// increments the reconfiguration counter.
func (h *ConfigHandler) SetMetrics(c *metrics.Collector) {
	h.metrics = c
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		WriteEnvelopeStatus(w, http.StatusMethodNotAllowed, types.NewValidationError("Method not allowed"))
	}
}

// handleGet reports the currently effective backend. It cannot fail: the
// store's read fallback chain always produces an origin.
func (h *ConfigHandler) handleGet(w http.ResponseWriter, _ *http.Request) {
	WriteEnvelope(w, types.NewSuccess(types.BackendLocation{
		BackendURL: h.store.Read(),
	}))
}

// handlePost validates and persists a new backend origin.
//
// A missing body, malformed JSON, a missing backendUrl field, and a
// backendUrl that is empty after trimming all collapse to the same 400
// validation response. The success body carries a fresh Read(), not the
// echoed input, so the caller sees exactly what subsequent forwards will use.
func (h *ConfigHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var loc types.BackendLocation
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		WriteEnvelope(w, types.NewValidationError(types.MessageBackendURLRequired))
		return
	}

	trimmed := strings.TrimSpace(loc.BackendURL)
	if trimmed == "" {
		WriteEnvelope(w, types.NewValidationError(types.MessageBackendURLRequired))
		return
	}

	if err := h.store.Write(trimmed); err != nil {
		if _, ok := err.(*backend.ValidationError); ok {
			WriteEnvelope(w, types.NewValidationError(err.Error()))
			return
		}
		h.logger.Error("failed to persist backend origin",
			"backend", trimmed,
			"error", err,
		)
		WriteEnvelope(w, types.NewInternalError("Failed to save backend configuration"))
		return
	}

	h.logger.Info("backend reconfigured", "backend", trimmed)
	if h.metrics != nil {
		h.metrics.RecordReconfiguration("api")
	}

	WriteEnvelope(w, types.NewSuccess(types.BackendLocation{
		BackendURL: h.store.Read(),
	}))
}
