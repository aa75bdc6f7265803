package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/logging"
)

const StatsCacheKey = "admin:stats"
const StatsCacheDuration = 30 * time.Second

// GET /api/admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Try cache first
	if cached := h.getCachedStats(ctx, w); cached {
		return
	}

	stats, err := h.Sto.Stats(ctx)
	if err != nil {
		apperr.Internal(w, r, err, "Failed to fetch stats")
		return
	}

	h.cacheAndWriteStats(ctx, w, stats)
}

func (h *Handler) getCachedStats(ctx context.Context, w http.ResponseWriter) bool {
	if h.RDB == nil {
		return false
	}

	cached, err := h.RDB.Get(ctx, StatsCacheKey).Bytes()
	if err != nil || len(cached) == 0 {
		return false
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(cached)
	return true
}

func (h *Handler) cacheAndWriteStats(ctx context.Context, w http.ResponseWriter, stats *StatsResponse) {
	statsJSON, _ := json.Marshal(stats)

	if h.RDB != nil {
		if err := h.RDB.SetEx(ctx, StatsCacheKey, statsJSON, StatsCacheDuration).Err(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("cache admin stats")
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(statsJSON)
}
