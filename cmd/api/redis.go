package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/config"
)

// newRedis connects when redis is configured and returns nil otherwise.
func newRedis(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var rdb *redis.Client
	if c.URL != "" {
		// Path A: full URL, e.g. rediss://default:<token>@host:port
		opt, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		if opt.TLSConfig != nil {
			opt.TLSConfig.MinVersion = tls.VersionTLS12
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		rdb = redis.NewClient(opt)
	} else {
		// Path B: split fields
		opt := &redis.Options{
			Addr:         c.Addr,
			Username:     c.User,
			Password:     c.Password,
			DB:           0,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		}
		if c.TLS {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb = redis.NewClient(opt)
	}

	// Fail fast if redis isn't reachable
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
