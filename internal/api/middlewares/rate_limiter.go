package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/config"
	"github.com/5w1tchy/book-art/internal/logging"
	"github.com/5w1tchy/book-art/internal/metrics"
)

// RateLimit returns the API-wide limiter chain: a per-IP token bucket for bursts and
// an hourly sliding window, both in redis. Without redis it falls back to an
// in-process httprate window. Redis errors let the request through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) func(http.Handler) http.Handler {
	if rdb == nil {
		perMinute := int(cfg.RatePerSecond * 60)
		if perMinute < 1 {
			perMinute = 1
		}
		return httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests("memory")),
		)
	}
	bucket := NewRedisTokenBucket(rdb, cfg.RatePerSecond, cfg.Burst, PerIPKey("rl:tb"))
	window := NewRedisSlidingWindow(rdb, cfg.Hourly, time.Hour, PerIPKey("rl:sw"))
	return func(next http.Handler) http.Handler {
		return bucket.Middleware(window.Middleware(next))
	}
}

func tooManyRequests(policy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RateLimited.WithLabelValues(policy).Inc()
		logging.Ctx(r.Context()).Warn().
			Str("policy", policy).
			Str("remote_ip", clientIP(r)).
			Str("retry_after", w.Header().Get("Retry-After")).
			Msg("rate limited")
		apperr.Write(w, http.StatusTooManyRequests, "Too many requests")
	}
}

// KeyFunc names the limiter bucket a request counts against.
type KeyFunc func(r *http.Request) string

// PerIPKey keys a limiter by client IP.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// clientIP reads RemoteAddr, which chi's RealIP has already resolved from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// tokenBucket refills at ARGV[1] tokens/s up to ARGV[2] and takes one token.
// The bucket is a hash {tokens, ts} keyed by KEYS[1]; redis TIME is the clock so
// every API instance agrees. Returns {allowed, whole tokens left, retry ms}.
var tokenBucket = redis.NewScript(`
local rate = tonumber(ARGV[1])
local cap  = tonumber(ARGV[2])
local t    = redis.call('TIME')
local now  = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state  = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or cap
local last   = tonumber(state[2]) or now
if now > last then
  tokens = math.min(cap, tokens + (now - last) * rate / 1000)
end

local allowed, wait = 0, 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap * 1000 / rate))
return {allowed, math.floor(tokens), wait}
`)

// RedisTokenBucket absorbs bursts of up to burst requests per key.
type RedisTokenBucket struct {
	rdb   *redis.Client
	keyFn KeyFunc
	rate  float64 // tokens per second
	burst int
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	return &RedisTokenBucket{rdb: rdb, keyFn: keyFn, rate: ratePerSecond, burst: burst}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	rate := strconv.FormatFloat(tb.rate, 'f', -1, 64)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		res, err := tokenBucket.Run(ctx, tb.rdb, []string{tb.keyFn(r)}, rate, tb.burst).Int64Slice()
		if err != nil || len(res) != 3 {
			logging.Ctx(ctx).Warn().Err(err).Str("policy", "token-bucket").Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Policy", "token-bucket")
		h.Set("X-RateLimit-Limit", strconv.Itoa(tb.burst))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
		if res[0] != 1 {
			h.Set("Retry-After", strconv.FormatInt(ceilSeconds(res[2]), 10))
			tooManyRequests("token-bucket")(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedisSlidingWindow allows limit requests per key in any trailing window, using
// a sorted set of request timestamps.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := sw.keyFn(r)
		now := time.Now().UnixMilli()
		start := now - sw.window.Milliseconds()

		pipe := sw.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(start, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
		card := pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, sw.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("policy", "sliding-window").Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		count := int(card.Val())

		h := w.Header()
		h.Set("X-RateLimit-Policy", "sliding-window")
		h.Set("X-RateLimit-Limit", strconv.Itoa(sw.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, sw.limit-count)))
		if count > sw.limit {
			h.Set("Retry-After", strconv.FormatInt(sw.retryAfter(r, key, now), 10))
			tooManyRequests("sliding-window")(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter is the number of seconds until the oldest request leaves the window.
func (sw *RedisSlidingWindow) retryAfter(r *http.Request, key string, now int64) int64 {
	oldest, err := sw.rdb.ZRangeWithScores(r.Context(), key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return 1
	}
	return ceilSeconds(int64(oldest[0].Score) + sw.window.Milliseconds() - now)
}

// ceilSeconds rounds ms up to whole seconds, at least 1.
func ceilSeconds(ms int64) int64 {
	return max(1, (ms+999)/1000)
}
