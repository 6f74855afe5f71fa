package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zaviye/zaviye/internal/service/ratelimit"
	"github.com/zaviye/zaviye/pkg/utils"
)

const (
	rateLimitedMessage = "Too many requests. Please try again later."
	unknownClient      = "unknown"
)

// RateLimit rejects callers that exceed the limiter's budget with 429.
// It expects chi's RealIP to have run so RemoteAddr carries the origin.
func RateLimit(limiter *ratelimit.Limiter, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientIP(r)
			if !limiter.Allow(client, now()) {
				slog.Warn("rate_limited", "client", client, "path", r.URL.Path)
				utils.RespondError(w, http.StatusTooManyRequests, rateLimitedMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller's address without the port.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return unknownClient
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
