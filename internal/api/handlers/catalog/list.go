package catalog

import (
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
	"github.com/5w1tchy/book-art/internal/validate"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GET /api/<resource>
func list(s *storecatalog.Store, res *storecatalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		q := storecatalog.ListQuery{Filters: map[string]string{}}
		for _, f := range res.Filters {
			q.Filters[f.Param] = qs.Get(f.Param)
		}
		q.Page, q.Limit = validate.Page(qs.Get("page"), qs.Get("limit"), defaultPageSize, maxPageSize)

		rows, total, err := s.List(r.Context(), res, q)
		if err != nil {
			writeStoreError(w, r, res, err, "Failed to fetch "+res.Name)
			return
		}

		body := map[string]any{res.Name: out(rows)}
		if res.Paged {
			body["total"] = total
			body["page"] = q.Page
			body["limit"] = q.Limit
		}
		httpx.OK(w, body)
	}
}
