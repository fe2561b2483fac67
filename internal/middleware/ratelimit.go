package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// RateLimiter is satisfied by *ratelimit.Limiter.
type RateLimiter interface {
	Enforce(ctx context.Context, identifier string, action domain.RateLimitAction) error
}

// RateLimit throttles action per client IP, answering 429 with Retry-After
// once the window is exhausted.
func RateLimit(limiter RateLimiter, action domain.RateLimitAction) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			err := limiter.Enforce(r.Context(), "ip:"+ip, action)
			var rl *domain.RateLimitError
			if errors.As(err, &rl) {
				WriteRateLimited(w, rl.RetryIn(time.Now()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteRateLimited writes the 429 response shared with the auth handlers.
func WriteRateLimited(w http.ResponseWriter, retryIn time.Duration) {
	secs := int(retryIn / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, http.StatusTooManyRequests, "rate_limited",
		fmt.Sprintf("Too many requests. Please try again in %d seconds.", secs))
}

// RealIP rewrites r.RemoteAddr to the caller's address. With hops trusted
// proxies in front of the server the caller is the hops-th X-Forwarded-For
// entry counted from the right; anything further left is client supplied.
// With hops == 0 forwarding headers are ignored.
func RealIP(hops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedIP(r, hops); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedIP(r *http.Request, hops int) string {
	if hops <= 0 {
		return ""
	}
	var entries []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(v, ",") {
			entries = append(entries, strings.TrimSpace(part))
		}
	}
	if len(entries) < hops {
		return ""
	}
	ip := entries[len(entries)-hops]
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}

// clientIPForRateLimit returns the host part of r.RemoteAddr, which RealIP has
// already resolved.
func clientIPForRateLimit(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
