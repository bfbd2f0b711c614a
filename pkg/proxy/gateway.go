package proxy

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/history"
	"mercator-hq/mercury/pkg/history/recorder"
	"mercator-hq/mercury/pkg/proxy/middleware"
	"mercator-hq/mercury/pkg/proxy/types"
	"mercator-hq/mercury/pkg/telemetry/metrics"
	"mercator-hq/mercury/pkg/telemetry/tracing"
)

// hopByHopHeaders lists headers that are meaningful only for a single
// transport-level connection and must not be forwarded by proxies
// (RFC 9110 Section 7.6.1). They are stripped in both directions.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// Gateway forwards intercepted requests to the currently configured backend.
// The backend origin comes from Store.Read() on every request; the Gateway
// holds no cached copy of it.
type Gateway struct {
	store          backend.Store
	client         *http.Client
	frontendOrigin string
	logger         *slog.Logger

	// Optional observability hooks, nil-safe.
	metrics  *metrics.Collector
	recorder *recorder.Recorder
}

// NewGateway creates a gateway that resolves its target through store and
// forwards with client. frontendOrigin, when non-empty, is presented to the
// backend as Origin and Referer for requests that carried neither.
func NewGateway(store backend.Store, client *http.Client, frontendOrigin string) *Gateway {
	return &Gateway{
		store:          store,
		client:         client,
		frontendOrigin: frontendOrigin,
		logger:         slog.Default().With("component", "proxy.gateway"),
	}
}

// SetMetrics attaches a metrics collector. Each completed forward records
// an outcome counter and an upstream-duration observation.
func (g *Gateway) SetMetrics(c *metrics.Collector) {
	g.metrics = c
}

// SetRecorder attaches a traffic recorder. Recording is best-effort: a
// saturated recorder drops the record and the forward proceeds untouched.
func (g *Gateway) SetRecorder(r *recorder.Recorder) {
	g.recorder = r
}

// Matches reports whether the gateway intercepts the given request path.
// Intercepted: /api, anything under /api/, and exactly /health. Everything
// else, including /apifoo and /config/backend, belongs to the host.
func Matches(path string) bool {
	if path == "/api" || path == "/health" {
		return true
	}
	return strings.HasPrefix(path, "/api/")
}

// Middleware wraps next so that intercepted paths are forwarded to the
// backend and all other requests fall through. This is how every host
// adapter mounts the gateway: the standalone server puts its mux behind
// it, the dev adapter puts the dev-server relay behind it.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Matches(r.URL.Path) {
			g.forward(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the gateway as a standalone handler: intercepted paths
// are forwarded, everything else is a 404.
func (g *Gateway) Handler() http.Handler {
	return g.Middleware(http.NotFoundHandler())
}

// forward relays one request to the backend resolved for this request.
//
// The origin is read from the store here, per request, and nowhere else.
// No retry on failure: a connection error before any response becomes the
// 502 envelope, a failure mid-stream becomes a truncated response.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	origin := strings.TrimRight(g.store.Read(), "/")

	targetURL := origin + r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	reqBody := &countingReader{reader: r.Body}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, reqBody)
	if err != nil {
		g.logger.Warn("failed to build outbound request",
			"target", targetURL,
			"error", err,
		)
		g.finishUnavailable(w, r, origin, start, err)
		return
	}
	outReq.ContentLength = r.ContentLength

	g.prepareHeaders(outReq, r)

	resp, err := g.client.Do(outReq)
	if err != nil {
		// The client going away is not a backend failure; write nothing.
		if r.Context().Err() != nil {
			g.logger.Debug("client disconnected during forward",
				"target", origin,
				"path", r.URL.Path,
			)
			return
		}

		g.logger.Warn("backend unreachable",
			"target", origin,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		g.finishUnavailable(w, r, origin, start, err)
		return
	}
	defer resp.Body.Close()

	upstream := time.Since(start)

	// Relay status and headers, minus hop-by-hop.
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	written, copyErr := relayBody(w, resp.Body)
	if copyErr != nil {
		// Headers are out; the only honest option left is truncation.
		g.logger.Warn("response relay interrupted",
			"target", origin,
			"path", r.URL.Path,
			"written_bytes", written,
			"error", copyErr,
		)
	}

	if g.metrics != nil {
		g.metrics.RecordForward(r.Method, metrics.OutcomeForwarded, upstream)
		g.metrics.RecordForwardBytes("request", reqBody.n)
		g.metrics.RecordForwardBytes("response", written)
	}

	g.record(r, &history.TrafficRecord{
		RequestTime:   start,
		Backend:       origin,
		StatusCode:    resp.StatusCode,
		Outcome:       history.OutcomeForwarded,
		Latency:       upstream,
		RequestBytes:  reqBody.n,
		ResponseBytes: written,
	})
}

// prepareHeaders builds the outbound header set from the inbound request.
func (g *Gateway) prepareHeaders(outReq *http.Request, r *http.Request) {
	for key, values := range r.Header {
		for _, v := range values {
			outReq.Header.Add(key, v)
		}
	}
	for _, h := range hopByHopHeaders {
		outReq.Header.Del(h)
	}

	// Present the frontend origin only when the client sent none, so a
	// browser's own Origin/Referer always wins.
	if g.frontendOrigin != "" {
		if outReq.Header.Get("Origin") == "" {
			outReq.Header.Set("Origin", g.frontendOrigin)
		}
		if outReq.Header.Get("Referer") == "" {
			outReq.Header.Set("Referer", g.frontendOrigin)
		}
	}

	clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || clientIP == "" {
		clientIP = r.RemoteAddr
	}
	if prior := outReq.Header.Get("X-Forwarded-For"); prior != "" {
		outReq.Header.Set("X-Forwarded-For", prior+", "+clientIP)
	} else {
		outReq.Header.Set("X-Forwarded-For", clientIP)
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	outReq.Header.Set("X-Forwarded-Proto", scheme)
	outReq.Header.Set("X-Forwarded-Host", r.Host)

	tracing.Inject(r.Context(), outReq.Header)
}

// finishUnavailable writes the 502 envelope and records the failed forward.
func (g *Gateway) finishUnavailable(w http.ResponseWriter, r *http.Request, origin string, start time.Time, cause error) {
	upstream := time.Since(start)

	WriteEnvelope(w, types.NewBackendUnavailable())

	if g.metrics != nil {
		g.metrics.RecordForward(r.Method, metrics.OutcomeBackendUnavailable, upstream)
	}

	g.record(r, &history.TrafficRecord{
		RequestTime: start,
		Backend:     origin,
		StatusCode:  http.StatusBadGateway,
		Outcome:     history.OutcomeBackendUnavailable,
		Latency:     upstream,
		Error:       cause.Error(),
	})
}

// record fills in request-side fields and hands the record to the recorder.
func (g *Gateway) record(r *http.Request, rec *history.TrafficRecord) {
	if g.recorder == nil {
		return
	}

	rec.RequestID = middleware.GetRequestID(r.Context())
	rec.Method = r.Method
	rec.Path = r.URL.Path
	rec.Query = r.URL.RawQuery
	rec.RemoteAddr = r.RemoteAddr
	rec.UserAgent = r.UserAgent()
	rec.RequestHeaders = g.recorder.CaptureHeaders(r.Header)

	// Errors here mean the buffer was full; the drop is already logged
	// and counted by the recorder.
	_ = g.recorder.Record(r.Context(), rec)
}

// copyHeaders copies all non-hop-by-hop headers from src to dst.
func copyHeaders(dst http.Header, src http.Header) {
	for key, values := range src {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
}

// relayBody copies the upstream body to the client, flushing after every
// chunk so streamed responses are delivered as they arrive instead of
// buffered. Memory stays bounded by the chunk size regardless of body size.
func relayBody(w http.ResponseWriter, body io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)

	buf := make([]byte, 32*1024)
	var written int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// countingReader counts bytes passing through a forwarded request body.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}
