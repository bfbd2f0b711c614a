package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/proxy/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	// Tests exercise routing through Handler(), not rate limiting.
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, store backend.Store) *Server {
	t.Helper()
	return NewServer(testConfig(t), store)
}

// TestServer_ConfigEndpointRouting tests that /config/backend reaches the
// config handler through the full middleware chain.
func TestServer_ConfigEndpointRouting(t *testing.T) {
	store := backend.NewMemoryStore("http://localhost:9000")
	srv := newTestServer(t, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config/backend", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID, middleware chain not applied")
	}

	var resp types.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response is not a valid envelope: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["backendUrl"] != "http://localhost:9000" {
		t.Errorf("backendUrl = %v", data["backendUrl"])
	}
}

// TestServer_InterceptedPathsForwarded tests that /api and /health bypass
// the mux and reach the backend.
func TestServer_InterceptedPathsForwarded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("backend:" + r.URL.Path))
	}))
	defer upstream.Close()

	srv := newTestServer(t, backend.NewMemoryStore(upstream.URL))
	handler := srv.Handler()

	for _, p := range []string{"/api/mail/folders", "/health"} {
		t.Run(p, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))

			if rec.Body.String() != "backend:"+p {
				t.Errorf("body = %q, want backend:%s", rec.Body.String(), p)
			}
		})
	}
}

// TestServer_ReconfigureThenForward tests the full loop: POST the config
// endpoint, then watch the next forward hit the new backend.
func TestServer_ReconfigureThenForward(t *testing.T) {
	backendA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a"))
	}))
	defer backendA.Close()
	backendB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("b"))
	}))
	defer backendB.Close()

	srv := newTestServer(t, backend.NewMemoryStore(backendA.URL))
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mail", nil))
	if rec.Body.String() != "a" {
		t.Fatalf("initial forward = %q, want a", rec.Body.String())
	}

	body := strings.NewReader(`{"backendUrl":"` + backendB.URL + `"}`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/config/backend", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /config/backend status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mail", nil))
	if rec.Body.String() != "b" {
		t.Errorf("forward after reconfiguration = %q, want b", rec.Body.String())
	}
}

// TestServer_InternalEndpoints tests the local probe endpoints.
func TestServer_InternalEndpoints(t *testing.T) {
	srv := newTestServer(t, backend.NewMemoryStore(""))
	srv.SetBuildInfo(BuildInfo{Version: "1.2.3", Commit: "abc", BuildTime: "now"})
	handler := srv.Handler()

	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("readiness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/version", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var info map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
			t.Fatalf("version response not JSON: %v", err)
		}
		if info["version"] != "1.2.3" {
			t.Errorf("version = %v, want 1.2.3", info["version"])
		}
	})
}

// TestServer_StaticFallback tests static delivery behind the gateway.
func TestServer_StaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Frontend.StaticDir = dir
	srv := NewServer(cfg, backend.NewMemoryStore(""))
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mail/inbox", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "<html>app</html>" {
		t.Errorf("body = %q, want the index file", rec.Body.String())
	}
}

// TestServer_RateLimitOnConfigOnly tests that the limiter guards the config
// endpoint but not forwarded traffic.
func TestServer_RateLimitOnConfigOnly(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	cfg := testConfig(t)
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSecond = 0.001
	cfg.Server.RateLimit.Burst = 2

	srv := NewServer(cfg, backend.NewMemoryStore(upstream.URL))
	handler := srv.Handler()

	// Exhaust the config endpoint's bucket.
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/config/backend", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third config request status = %d, want 429", last)
	}

	// Forwarded traffic from the same client is unaffected.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/mail", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("forward %d status = %d, want 200", i+1, rec.Code)
		}
	}
}
