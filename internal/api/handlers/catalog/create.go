package catalog

import (
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// POST /api/<resource>
func create(s *storecatalog.Store, res *storecatalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		p, ok := decodePayload(w, r)
		if !ok {
			return
		}

		row, err := s.Create(r.Context(), res, p)
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to create "+res.Singular)
			return
		}
		httpx.Created(w, map[string]any{
			res.Singular: out(row),
			"message":    res.Label + " created successfully",
		})
	}
}
