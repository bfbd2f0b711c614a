package proxy

import (
	"net/http"

	"mercator-hq/mercury/pkg/config"
)

// NewClient builds the pooled outbound client shared by all forwards.
//
// Compression is disabled on the transport so response bodies reach the
// frontend byte-identical to what the backend sent; the gateway never
// injects or strips gzip. Redirects are not followed: a 3xx from the
// backend is relayed as-is and the frontend decides what to do with it.
// The default timeout is zero because the gateway imposes no per-request
// deadline of its own; mailbox sync streams stay open until a side closes.
func NewClient(cfg config.BackendClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableCompression:  true,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
