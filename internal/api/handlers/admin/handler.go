// Package admin serves the back-office endpoints: catalog stats and user roles.
package admin

import (
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	RDB *redis.Client // optional; caches stats and limits role changes
	Sto Store
}

func NewHandler(rdb *redis.Client, store Store) *Handler {
	return &Handler{
		RDB: rdb,
		Sto: store,
	}
}
