package middlewares

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/5w1tchy/book-art/internal/logging"
)

type ctxKey int

const requestIDHeader = "X-Request-ID"

var ridRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// RequestID keeps a well-formed incoming X-Request-ID, otherwise mints a UUID.
// The id is echoed on the response and carried by the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if !ridRe.MatchString(rid) {
			rid = uuid.NewString()
			r.Header.Set(requestIDHeader, rid)
		}
		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), rid)))
	})
}

// GetRequestID returns the id assigned by RequestID, or the raw header when the
// middleware did not run.
func GetRequestID(r *http.Request) string {
	if rid := logging.RequestID(r.Context()); rid != "" {
		return rid
	}
	return r.Header.Get(requestIDHeader)
}
