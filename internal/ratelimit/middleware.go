package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"foodbridge/pkg/platform/httputil"
	mwauth "foodbridge/pkg/platform/middleware/auth"
)

// Middleware limits authenticated requests per user. It must sit inside the
// auth middleware so the user ID is bound; unauthenticated requests (which
// auth rejects anyway) pass through uncounted.
func Middleware(limiter *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := mwauth.GetUserID(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			result := limiter.Allow(userID)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				logger.WarnContext(r.Context(), "request rate limited", "user_id", userID)
				retryAfter := int64(time.Until(result.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limited",
					"error_description": "too many requests, slow down",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
