package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/screencast-service/internal/ratelimit"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
)

// KeyFunc picks the identity a request is limited by.
type KeyFunc func(r *http.Request) (string, bool)

// ByOwner limits authenticated requests per owner.
func ByOwner(r *http.Request) (string, bool) {
	return GetUserIDFromContext(r.Context())
}

// ByClientIP limits anonymous requests per remote address.
func ByClientIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host, host != ""
}

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig sets up the per-action limits:
// uploads 10/min and notifications 30/min.
func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	return &RateLimitConfig{
		limiters: map[string]*ratelimit.TokenBucket{
			ratelimit.ActionUploads:       ratelimit.NewTokenBucket(redisClient, 10, 10),
			ratelimit.ActionNotifications: ratelimit.NewTokenBucket(redisClient, 30, 30),
		},
	}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := keyFn(r)
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			allowed, err := limiter.Allow(r.Context(), key, action)
			if err != nil {
				// fail open while redis is unavailable
				slog.Error("rate limit check failed", slog.String("action", action), slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), key, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(limiter.Window().Seconds())))

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, keyFn KeyFunc, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action, keyFn)(handler)
}
