//go:build integration

package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/mercury/internal/backendtest"
	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/server"
)

// envelope mirrors the JSON envelope the gateway emits.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func startGateway(t *testing.T) (*httptest.Server, *backend.FileStore) {
	t.Helper()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.RateLimit.Enabled = false
	cfg.Backend.StorePath = filepath.Join(t.TempDir(), "backend.json")

	store := backend.NewFileStore(cfg.Backend.StorePath, nil)
	srv := server.NewServer(cfg, store)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func setBackend(t *testing.T, gatewayURL, backendURL string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"backendUrl": backendURL})
	resp, err := http.Post(gatewayURL+"/config/backend", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /config/backend: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /config/backend status = %d, want 200", resp.StatusCode)
	}
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

// TestGatewayIntegration_HotReconfiguration reconfigures the backend over
// the API and verifies the very next forward lands on the new upstream.
func TestGatewayIntegration_HotReconfiguration(t *testing.T) {
	first := backendtest.NewUpstream()
	defer first.Close()
	second := backendtest.NewUpstream()
	defer second.Close()
	first.SetResponse("/api/mail/folders", backendtest.JSONBody(http.StatusOK, map[string]string{"from": "first"}))
	second.SetResponse("/api/mail/folders", backendtest.JSONBody(http.StatusOK, map[string]string{"from": "second"}))

	gw, _ := startGateway(t)
	setBackend(t, gw.URL, first.URL())

	resp, err := http.Get(gw.URL + "/api/mail/folders")
	if err != nil {
		t.Fatalf("first forward: %v", err)
	}
	resp.Body.Close()
	if first.RequestCount() != 1 {
		t.Fatalf("first upstream requests = %d, want 1", first.RequestCount())
	}

	setBackend(t, gw.URL, second.URL())

	resp, err = http.Get(gw.URL + "/api/mail/folders")
	if err != nil {
		t.Fatalf("second forward: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if second.RequestCount() != 1 {
		t.Errorf("second upstream requests = %d, want 1", second.RequestCount())
	}
	if first.RequestCount() != 1 {
		t.Errorf("first upstream requests after switch = %d, want 1", first.RequestCount())
	}
	if !strings.Contains(string(body), "second") {
		t.Errorf("response body = %s, want routed to second upstream", body)
	}
}

// TestGatewayIntegration_FallbackOrder starts with an empty store and
// verifies the GET reflects the built-in default without error.
func TestGatewayIntegration_FallbackOrder(t *testing.T) {
	gw, _ := startGateway(t)

	resp, err := http.Get(gw.URL + "/config/backend")
	if err != nil {
		t.Fatalf("GET /config/backend: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatal("empty store read should succeed")
	}
	var data struct {
		BackendURL string `json:"backendUrl"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.BackendURL != backend.DefaultOrigin {
		t.Errorf("backendUrl = %q, want default %q", data.BackendURL, backend.DefaultOrigin)
	}
}

// TestGatewayIntegration_ValidationLeavesStoreUnchanged rejects bad writes
// with 400 and keeps the stored value intact.
func TestGatewayIntegration_ValidationLeavesStoreUnchanged(t *testing.T) {
	upstream := backendtest.NewUpstream()
	defer upstream.Close()

	gw, store := startGateway(t)
	setBackend(t, gw.URL, upstream.URL())

	for _, payload := range []string{`{}`, `{"backendUrl":""}`} {
		resp, err := http.Post(gw.URL+"/config/backend", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST %s: %v", payload, err)
		}
		env := decodeEnvelope(t, resp)
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want 400", payload, resp.StatusCode)
		}
		if env.Success {
			t.Errorf("POST %s should not succeed", payload)
		}
		if env.Error == nil || env.Error.Code != "" {
			t.Errorf("POST %s validation error should carry no code, got %+v", payload, env.Error)
		}
	}

	if got := store.Read(); got != upstream.URL() {
		t.Errorf("store after rejected writes = %q, want %q", got, upstream.URL())
	}
}

// TestGatewayIntegration_BackendUnavailableEnvelope verifies the fixed 502
// envelope when the upstream is unreachable.
func TestGatewayIntegration_BackendUnavailableEnvelope(t *testing.T) {
	dead := backendtest.NewUpstream()
	deadURL := dead.URL()
	dead.Close()

	gw, _ := startGateway(t)
	setBackend(t, gw.URL, deadURL)

	resp, err := http.Get(gw.URL + "/api/accounts")
	if err != nil {
		t.Fatalf("forward to dead upstream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "BACKEND_UNAVAILABLE" {
		t.Fatalf("error = %+v, want code BACKEND_UNAVAILABLE", env.Error)
	}
	if env.Error.Message != "Backend service is unavailable. Please try again later." {
		t.Errorf("message = %q", env.Error.Message)
	}
}

// TestGatewayIntegration_PassthroughFidelity verifies status, headers, and
// bodies cross the gateway byte for byte in both directions.
func TestGatewayIntegration_PassthroughFidelity(t *testing.T) {
	upstream := backendtest.NewUpstream()
	defer upstream.Close()
	upstream.SetResponse("/api/mail/send", backendtest.Response{
		StatusCode: http.StatusCreated,
		Body:       `{"id":"msg-42"}`,
		Headers:    map[string]string{"X-Sync-Token": "tok-7", "Content-Type": "application/json"},
	})

	gw, _ := startGateway(t)
	setBackend(t, gw.URL, upstream.URL())

	payload := []byte(`{"to":"ops@example.com","subject":"hi"}`)
	req, _ := http.NewRequest(http.MethodPost, gw.URL+"/api/mail/send?draft=false", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Build", "meridian-3.4")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Sync-Token"); got != "tok-7" {
		t.Errorf("X-Sync-Token = %q, want tok-7", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"id":"msg-42"}` {
		t.Errorf("body = %s", body)
	}

	received := upstream.LastRequest()
	if received == nil {
		t.Fatal("upstream saw no request")
	}
	if received.Method != http.MethodPost || received.Path != "/api/mail/send" {
		t.Errorf("upstream saw %s %s", received.Method, received.Path)
	}
	if received.Query != "draft=false" {
		t.Errorf("query = %q, want draft=false", received.Query)
	}
	if got := received.Header.Get("X-Client-Build"); got != "meridian-3.4" {
		t.Errorf("X-Client-Build = %q", got)
	}
	if !bytes.Equal(received.Body, payload) {
		t.Errorf("upstream body = %s, want %s", received.Body, payload)
	}
}

// TestGatewayIntegration_PathMatching verifies static paths never reach the
// upstream, even with the backend unreachable.
func TestGatewayIntegration_PathMatching(t *testing.T) {
	gw, store := startGateway(t)
	if err := store.Write("http://127.0.0.1:1"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	resp, err := http.Get(gw.URL + "/assets/logo.png")
	if err != nil {
		t.Fatalf("GET /assets/logo.png: %v", err)
	}
	defer resp.Body.Close()

	// No static dir is configured; the point is the response is the
	// gateway's own 404, not the 502 a forward would produce.
	if resp.StatusCode == http.StatusBadGateway {
		t.Error("static asset path was forwarded to the backend")
	}
}
