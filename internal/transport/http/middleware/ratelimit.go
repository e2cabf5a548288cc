package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/taratrabaho/jobboard-api/internal/pkg/ratelimit"
)

// RateLimit enforces limiter per client IP. Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), realIP(r))
			if err != nil {
				slog.Warn("rate limiter unavailable", "err", err)
				ok = true
			}
			if !ok {
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// realIP returns the client address: first X-Forwarded-For entry, then
// X-Real-Ip, then the host part of RemoteAddr.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
