package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"mercator-hq/mercury/pkg/proxy/types"
)

// RateLimitConfig contains configuration for the rate limiting middleware.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is enforced.
	Enabled bool

	// RequestsPerSecond is the sustained per-client rate.
	RequestsPerSecond float64

	// Burst is the number of requests a client may send at once before
	// the sustained rate applies.
	Burst int
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// clientLimiter pairs a token bucket with its last use, for eviction.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client token bucket. It is applied only to the
// reconfiguration endpoint; forwarded mail traffic never passes through it.
type RateLimiter struct {
	config  *RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter creates a rate limiter and starts its eviction loop.
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
	}

	if config.Enabled {
		go rl.evictLoop()
	}
	return rl
}

// Middleware wraps next with the rate limit check. Over-limit requests get
// the 429 envelope without reaching next.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.allow(clientKey(r)) {
			resp := types.NewRateLimited()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consumes one token from the client's bucket, creating it on first use.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.clients[key] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter.Allow()
}

// evictLoop drops buckets idle for more than ten minutes so the client map
// stays bounded.
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)

		rl.mu.Lock()
		for key, cl := range rl.clients {
			if cl.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// clientKey identifies a client by IP, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
