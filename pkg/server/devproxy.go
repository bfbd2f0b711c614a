package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewDevProxy relays non-intercepted paths to the frontend dev server so
// hot reload keeps working while the gateway owns /api and /health. Only
// the frontend goes through here; backend traffic is handled by the gateway
// before this handler is reached.
func NewDevProxy(upstream string) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid dev upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("dev upstream %q must be an absolute origin", upstream)
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("frontend dev server unreachable",
			"upstream", upstream,
			"path", r.URL.Path,
			"error", err,
		)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintln(w, "frontend dev server unreachable")
	}

	return rp, nil
}
