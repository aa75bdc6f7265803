package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// DELETE /api/<resource>/{id}
func remove(s *storecatalog.Store, res *storecatalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Delete(r.Context(), res, chi.URLParam(r, "id")); err != nil {
			writeStoreError(w, r, res, err, "Failed to delete "+res.Singular)
			return
		}
		httpx.OK(w, map[string]string{"message": res.Label + " deleted successfully"})
	}
}
