// Package search serves the cross-entity search endpoint.
package search

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/metrics"
	storesearch "github.com/5w1tchy/book-art/internal/store/search"
	"github.com/5w1tchy/book-art/internal/validate"
)

// Search handles GET /api/search?q=&limit=.
func Search(s *storesearch.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := validate.Limit(r.URL.Query().Get("limit"), 20, 100)

		resp, err := s.Search(r.Context(), r.URL.Query().Get("q"), limit)
		switch {
		case errors.Is(err, storesearch.ErrEmptyQuery):
			metrics.SearchQueries.WithLabelValues("empty").Inc()
			apperr.Write(w, http.StatusBadRequest, "Search query is required")
			return
		case err != nil:
			metrics.SearchQueries.WithLabelValues("error").Inc()
			apperr.Internal(w, r, err, "Search failed")
			return
		}

		metrics.SearchQueries.WithLabelValues("ok").Inc()
		httpx.OK(w, resp)
	}
}
