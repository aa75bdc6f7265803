package jwtutil

import (
	"time"

	"github.com/5w1tchy/book-art/internal/config"
)

type Config struct {
	Secret    []byte
	TTL       time.Duration
	ClockSkew time.Duration
}

func FromConfig(c config.AuthConfig) Config {
	return Config{
		Secret:    []byte(c.JWTSecret),
		TTL:       c.TokenTTL,
		ClockSkew: c.ClockSkew,
	}
}
