package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// POST /api/<resource>/{id}/<target> {"<target>Id": "..."}
func addLink(s *storecatalog.Store, res *storecatalog.Resource, l storecatalog.Link) http.HandlerFunc {
	key := storecatalog.TargetKey(l)
	target := targetName(l)
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var body map[string]any
		if err := httpx.DecodeJSON(r, &body); err != nil {
			apperr.Write(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		targetID, _ := body[key].(string)
		if targetID == "" {
			apperr.Write(w, http.StatusBadRequest, key+" is required")
			return
		}

		if err := s.AddLink(r.Context(), res, l, chi.URLParam(r, "id"), targetID); err != nil {
			writeStoreError(w, r, res, err, "Failed to associate "+res.Singular+" with "+target)
			return
		}
		httpx.Created(w, map[string]any{"message": res.Label + " associated with " + target})
	}
}

// DELETE /api/<resource>/{id}/<target>/{targetId}
func removeLink(s *storecatalog.Store, res *storecatalog.Resource, l storecatalog.Link) http.HandlerFunc {
	target := targetName(l)
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.RemoveLink(r.Context(), res, l, chi.URLParam(r, "id"), chi.URLParam(r, "targetId"))
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to remove "+res.Singular+" from "+target)
			return
		}
		httpx.OK(w, map[string]any{"message": res.Label + " removed from " + target})
	}
}

func targetName(l storecatalog.Link) string {
	if t, ok := storecatalog.Lookup(l.Target); ok {
		return t.Singular
	}
	return l.Target
}
