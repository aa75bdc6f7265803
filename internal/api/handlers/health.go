package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/logging"
)

const healthTimeout = 2 * time.Second

// Check is one dependency probed by Health.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health answers 200 {"status":"ok"} when every check passes, 503 otherwise.
func Health(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("health check failed")
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"failed": c.Name,
				})
				return
			}
		}
		httpx.OK(w, map[string]string{"status": "ok"})
	}
}
