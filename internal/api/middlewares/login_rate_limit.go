package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/logging"
)

// LoginRateLimit allows maxAttempts login attempts per IP per window. It counts in redis
// when available and in process otherwise.
func LoginRateLimit(rdb *redis.Client, maxAttempts int, win time.Duration) func(http.Handler) http.Handler {
	if rdb == nil {
		return httprate.Limit(maxAttempts, win,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests("login")),
		)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "rl:login:" + ip

			// INCR and set TTL if new
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("policy", "login").Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, win).Err()
			}
			if n > int64(maxAttempts) {
				w.Header().Set("Retry-After", strconv.Itoa(int(win.Seconds())))
				tooManyRequests("login")(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
