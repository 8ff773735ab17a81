// Package auth carries the request-guard middleware: CORS allowlist
// and a per-client rate limiter. Identity and permission checks are
// outside this service's scope.
package auth

import (
	"net"
	"net/http"
	"strings"

	"chatledger/pkg/logger"
)

// SecConfig configures the request guard.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	// RateLimitEnabled gates the limiter; CORS is always applied when
	// origins are configured.
	RateLimitEnabled bool
}

// GuardMiddleware applies CORS headers and per-remote rate limiting.
func GuardMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	pool := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && len(cfg.AllowedOrigins) > 0 {
				if !originAllowed(cfg.AllowedOrigins, origin) {
					logger.Warn("cors_rejected", "origin", origin, "path", r.URL.Path)
					http.Error(w, `{"error":"origin not allowed"}`, http.StatusForbidden)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			if cfg.RateLimitEnabled {
				key := clientKey(r)
				if !pool.Allow(key) {
					logger.Warn("rate_limited", "client", key, "path", r.URL.Path)
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
