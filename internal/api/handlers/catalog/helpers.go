package catalog

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/casemap"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// writeStoreError maps a store failure onto the response. Anything the client
// did not cause is logged and answered with fallback.
func writeStoreError(w http.ResponseWriter, r *http.Request, res *storecatalog.Resource, err error, fallback string) {
	var in *storecatalog.InputError
	switch {
	case errors.As(err, &in):
		apperr.Write(w, http.StatusBadRequest, in.Msg)
		return
	case errors.Is(err, storecatalog.ErrNotFound):
		apperr.Write(w, http.StatusNotFound, res.Label+" not found")
		return
	}

	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.Code == "23505" {
		apperr.Write(w, http.StatusBadRequest, res.Label+" already exists")
		return
	}
	apperr.HandleDBError(w, r, err, fallback)
}

// decodePayload reads a JSON object body. Returns false after answering 400.
func decodePayload(w http.ResponseWriter, r *http.Request) (storecatalog.Payload, bool) {
	var p storecatalog.Payload
	if err := httpx.DecodeJSON(r, &p); err != nil {
		apperr.Write(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if p == nil {
		apperr.Write(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return p, true
}

func out(v any) any { return casemap.Keys(v) }
