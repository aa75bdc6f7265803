package apperr

import (
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/logging"
)

// Write sends the flat {"error": msg} body.
func Write(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, httpx.ErrorBody{Error: msg})
}

// Internal logs err against the request and answers 500 with a generic message.
func Internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(msg)
	Write(w, http.StatusInternalServerError, msg)
}
