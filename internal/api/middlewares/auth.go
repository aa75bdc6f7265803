package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/book-art/internal/api/apperr"
)

var ErrNoBearer = errors.New("no bearer")

// Verifier turns a raw bearer token into a Session.
type Verifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// RequireAuth verifies the bearer token and stores the Session in the request context.
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := authenticate(w, r, v)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin is RequireAuth plus the admin flag.
func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := authenticate(w, r, v)
			if !ok {
				return
			}
			if !s.IsAdmin {
				apperr.Write(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, v Verifier) (Session, bool) {
	if s, ok := SessionFrom(r.Context()); ok {
		return s, true
	}
	tok, err := Bearer(r)
	if err != nil {
		apperr.Write(w, http.StatusUnauthorized, "Unauthorized")
		return Session{}, false
	}
	s, err := v.Verify(r.Context(), tok)
	if err != nil {
		apperr.Write(w, http.StatusUnauthorized, "Unauthorized: invalid credential")
		return Session{}, false
	}
	return s, true
}

// Bearer extracts the token from "Authorization: Bearer <token>".
func Bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrNoBearer
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", ErrNoBearer
	}
	return tok, nil
}
