package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// GET /api/<resource>/{id}
func get(s *storecatalog.Store, res *storecatalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var (
			row map[string]any
			err error
		)
		if res == storecatalog.Art {
			row, err = s.ArtView(r.Context(), id)
		} else {
			row, err = s.Get(r.Context(), res, id)
		}
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to fetch "+res.Singular)
			return
		}
		httpx.OK(w, map[string]any{res.Singular: out(row)})
	}
}
