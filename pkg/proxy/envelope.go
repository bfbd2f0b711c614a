package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"mercator-hq/mercury/pkg/proxy/types"
)

// WriteEnvelope serializes a response envelope with the status code the
// envelope maps to. Must only be called before any other write to w.
func WriteEnvelope(w http.ResponseWriter, resp *types.Response) {
	WriteEnvelopeStatus(w, resp.HTTPStatusCode(), resp)
}

// WriteEnvelopeStatus is WriteEnvelope with an explicit status code, for
// the few responses whose status is not derivable from the error code.
func WriteEnvelopeStatus(w http.ResponseWriter, status int, resp *types.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Debug("failed to write response envelope", "error", err)
	}
}
