// Package cache is a versioned Redis read cache. Entries live under
// "<ns>:v<N>:" and a write bumps N, which orphans every earlier entry at once.
// A nil *Cache, or any Redis failure, behaves as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/logging"
)

type Cache struct {
	rdb     *redis.Client
	ns      string
	ttl     time.Duration
	timeout time.Duration // per operation
	warned  atomic.Int64  // unix seconds of the last warning
}

// New returns nil when rdb is nil or ttl is not positive.
func New(rdb *redis.Client, ns string, ttl, timeout time.Duration) *Cache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = 150 * time.Millisecond
	}
	return &Cache{rdb: rdb, ns: ns, ttl: ttl, timeout: timeout}
}

func (c *Cache) versionKey() string { return c.ns + ":ver" }

// Gen is the cache generation a lookup resolved. A value read from the database
// after a miss must be stored under the Gen of that miss, so a write committed
// in between leaves it orphaned. The zero Gen disables Set.
type Gen string

// gen resolves the current generation. A missing counter is generation 0; the
// first Bump moves it to 1.
func (c *Cache) gen(ctx context.Context) (Gen, error) {
	ver, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		ver, err = 0, nil
	}
	if err != nil {
		return "", err
	}
	return Gen(fmt.Sprintf("%s:v%d:", c.ns, ver)), nil
}

// Get decodes the entry for key into dst. It reports whether it was found and
// the generation to pass to Set on a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (Gen, bool) {
	if c == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	g, err := c.gen(ctx)
	if err != nil {
		c.warnOnce(ctx, "get", err)
		return "", false
	}
	b, err := c.rdb.Get(ctx, string(g)+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return g, false
	}
	if err != nil {
		c.warnOnce(ctx, "get", err)
		return "", false
	}
	if json.Unmarshal(b, dst) != nil {
		return g, false
	}
	return g, true
}

// Set stores v under key in generation g for the cache TTL. Failures are logged
// and dropped.
func (c *Cache) Set(ctx context.Context, g Gen, key string, v any) {
	if c == nil || g == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rdb.SetEx(ctx, string(g)+key, b, c.ttl).Err(); err != nil {
		c.warnOnce(ctx, "set", err)
	}
}

// Bump invalidates every entry. Call it after a committed write.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.rdb.Incr(ctx, c.versionKey()).Err(); err != nil {
		return fmt.Errorf("bump %s version: %w", c.ns, err)
	}
	return nil
}

// warnOnce logs at most one failure per minute.
func (c *Cache) warnOnce(ctx context.Context, op string, err error) {
	now := time.Now().Unix()
	last := c.warned.Load()
	if now-last < 60 || !c.warned.CompareAndSwap(last, now) {
		return
	}
	logging.Ctx(ctx).Warn().Err(err).Str("cache", c.ns).Str("op", op).
		Msg("cache unavailable; serving from database")
}
