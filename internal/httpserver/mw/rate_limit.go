package mw

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/profileqr/internal/logger"
	"github.com/MrSnakeDoc/profileqr/internal/ratelimit"
	"github.com/MrSnakeDoc/profileqr/internal/utils"
)

// RateLimit admits each request through l, keyed by client IP. Rejections
// get 429 with Retry-After and never reach next.
func RateLimit(l *ratelimit.Limiter, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, trustProxy)

			d := l.Check(key)
			SetRateLimitHeaders(w, d)
			if !d.Allowed {
				log.Debug("rate limit exceeded",
					logger.String("client", key),
					logger.String("path", r.URL.Path))
				WriteRateLimited(w, d.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetRateLimitHeaders writes the informational X-RateLimit-* headers for d.
func SetRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

// WriteRateLimited writes the 429 response.
func WriteRateLimited(w http.ResponseWriter, retryAfter int) {
	if retryAfter <= 0 {
		retryAfter = ratelimit.RetryAfterSeconds
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	denyWith(w, http.StatusTooManyRequests, "rate_limited",
		"too many requests, retry in "+strconv.Itoa(retryAfter)+" seconds", retryAfter)
}
