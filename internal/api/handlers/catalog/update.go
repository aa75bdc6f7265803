package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// PUT and PATCH /api/<resource>/{id}. Both are partial: keys left out of the
// body keep their stored value.
func update(s *storecatalog.Store, res *storecatalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		p, ok := decodePayload(w, r)
		if !ok {
			return
		}

		row, err := s.Update(r.Context(), res, chi.URLParam(r, "id"), p)
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to update "+res.Singular)
			return
		}
		httpx.OK(w, map[string]any{
			res.Singular: out(row),
			"message":    res.Label + " updated successfully",
		})
	}
}
