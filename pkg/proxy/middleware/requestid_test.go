package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRequestIDMiddleware_Generates tests that a request without an ID gets one.
func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seenID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seenID == "" {
		t.Fatal("handler saw no request ID in context")
	}
	if len(seenID) != 32 {
		t.Errorf("generated ID length = %d, want 32 hex chars", len(seenID))
	}
	if got := rec.Header().Get(RequestIDHeader); got != seenID {
		t.Errorf("response header %s = %q, want %q", RequestIDHeader, got, seenID)
	}
}

// TestRequestIDMiddleware_ReusesClientID tests that a supplied ID is kept.
func TestRequestIDMiddleware_ReusesClientID(t *testing.T) {
	var seenID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID != "client-supplied-id" {
		t.Errorf("context request ID = %q, want client-supplied-id", seenID)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("response header = %q, want client-supplied-id", got)
	}
}

// TestRequestIDMiddleware_UniquePerRequest tests that generated IDs differ.
func TestRequestIDMiddleware_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[GetRequestID(r.Context())] = true
	}))

	for i := 0; i < 10; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	if len(ids) != 10 {
		t.Errorf("got %d distinct IDs across 10 requests, want 10", len(ids))
	}
}

// TestGetRequestID_Missing tests the empty-context case.
func TestGetRequestID_Missing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty ctx) = %q, want empty", got)
	}
}
