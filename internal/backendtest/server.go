// Package backendtest provides a recording upstream server for gateway tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Upstream is a recording HTTP server standing in for a Meridian backend.
// It captures every request the gateway forwards and serves configurable
// responses per path.
type Upstream struct {
	server    *httptest.Server
	responses map[string]Response
	requests  []ReceivedRequest
	mu        sync.Mutex
}

// Response defines the canned response for a path.
type Response struct {
	StatusCode   int
	Body         interface{}
	Delay        time.Duration
	Headers      map[string]string
	StreamChunks []string
}

// ReceivedRequest is a request captured by the upstream.
type ReceivedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// NewUpstream creates and starts a recording upstream server.
func NewUpstream() *Upstream {
	u := &Upstream{
		responses: make(map[string]Response),
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.handler))
	return u
}

// URL returns the upstream's origin.
func (u *Upstream) URL() string {
	return u.server.URL
}

// Close shuts the upstream down.
func (u *Upstream) Close() {
	u.server.Close()
}

// SetResponse configures the response for a path. Paths without a
// configured response return 404.
func (u *Upstream) SetResponse(path string, response Response) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.responses[path] = response
}

// Requests returns a copy of every request received so far.
func (u *Upstream) Requests() []ReceivedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]ReceivedRequest, len(u.requests))
	copy(out, u.requests)
	return out
}

// RequestCount returns the number of requests received.
func (u *Upstream) RequestCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.requests)
}

// LastRequest returns the most recent request, or nil when none arrived.
func (u *Upstream) LastRequest() *ReceivedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.requests) == 0 {
		return nil
	}
	last := u.requests[len(u.requests)-1]
	return &last
}

// Reset clears the captured requests.
func (u *Upstream) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.requests = nil
}

func (u *Upstream) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.requests = append(u.requests, ReceivedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := u.responses[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		u.stream(w, response)
		return
	}

	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// stream writes each chunk followed by a flush, the shape a sync
// endpoint uses for incremental delivery.
func (u *Upstream) stream(w http.ResponseWriter, response Response) {
	w.Header().Set("Content-Type", "application/octet-stream")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	for _, chunk := range response.StreamChunks {
		_, _ = w.Write([]byte(chunk))
		flusher.Flush()
		time.Sleep(5 * time.Millisecond)
	}
}

// JSONBody builds a Response with a JSON payload.
func JSONBody(statusCode int, body interface{}) Response {
	return Response{
		StatusCode: statusCode,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// SlowResponse builds a delayed response to exercise timeouts.
func SlowResponse(delay time.Duration) Response {
	return Response{
		StatusCode: http.StatusOK,
		Body:       "ok",
		Delay:      delay,
	}
}
