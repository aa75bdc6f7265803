package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// GET /api/<resource>/{id}/<child>
func children(s *storecatalog.Store, res *storecatalog.Resource, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.Children(r.Context(), res, chi.URLParam(r, "id"), name)
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to fetch "+name+" for "+res.Singular)
			return
		}
		httpx.OK(w, map[string]any{name: out(rows)})
	}
}
