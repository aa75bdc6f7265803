package catalog

import (
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
	"github.com/5w1tchy/book-art/internal/validate"
)

// GET /api/art/search?q=&bookId=&chapterId=&limit=
func searchArt(s *storecatalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		rows, err := s.SearchArt(r.Context(), storecatalog.ArtQuery{
			Q:         qs.Get("q"),
			BookID:    qs.Get("bookId"),
			ChapterID: qs.Get("chapterId"),
			Limit:     validate.Limit(qs.Get("limit"), 50, 200),
		})
		if err != nil {
			writeStoreError(w, r, storecatalog.Art, err, "Failed to search art")
			return
		}
		httpx.OK(w, map[string]any{"art": out(rows)})
	}
}
