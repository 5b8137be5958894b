package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewRateLimiter returns a middleware enforcing a global request rate across
// all clients. Requests beyond the burst allowance get 429 Too Many Requests.
// The limiter is process-wide rather than per-client; the API sits behind a
// single front desk, not the open internet.
func NewRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
