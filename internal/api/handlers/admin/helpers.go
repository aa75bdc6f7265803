package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/middlewares"
	"github.com/5w1tchy/book-art/internal/logging"
)

// ===== Request Helpers =====

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func getAdminID(ctx context.Context) string {
	sess, _ := middlewares.SessionFrom(ctx)
	return sess.UserID
}

// ===== Rate Limiting =====

func rateKey(prefix, adminID string) string {
	return "admin:rl:" + prefix + ":" + adminID
}

func (h *Handler) allowAction(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := h.RDB.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}
	return int(incr.Val()) <= limit, nil
}

// checkRateLimit reports whether the action may proceed, answering 429 otherwise.
// Without redis nothing is limited; redis errors let the action through.
func (h *Handler) checkRateLimit(ctx context.Context, w http.ResponseWriter, action, adminID string, limit int, window time.Duration) bool {
	if h.RDB == nil {
		return true
	}
	ok, err := h.allowAction(ctx, rateKey(action, adminID), limit, window)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("admin rate limit unavailable")
		return true
	}
	if !ok {
		apperr.Write(w, http.StatusTooManyRequests, "Too many requests")
		return false
	}
	return true
}
