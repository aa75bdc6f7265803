package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/api/middlewares"
	"github.com/5w1tchy/book-art/internal/logging"
	"github.com/5w1tchy/book-art/internal/security/password"
	"github.com/5w1tchy/book-art/internal/validate"
)

type Handler struct {
	Store       UserStore
	Sessions    *Sessions
	Passwords   *password.Hasher
	AdminEmails map[string]bool
}

func New(store UserStore, sessions *Sessions, passwords *password.Hasher, adminEmails []string) *Handler {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &Handler{Store: store, Sessions: sessions, Passwords: passwords, AdminEmails: admins}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Write(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		apperr.Write(w, http.StatusBadRequest, err.Error())
		return
	}

	pwd, warn, err := password.Validate(req.Password, req.Email, req.Username)
	if err != nil {
		apperr.Write(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := h.Passwords.Hash(pwd)
	if err != nil {
		apperr.Internal(w, r, err, "Registration failed")
		return
	}

	role := RoleUser
	if h.AdminEmails[req.Email] {
		role = RoleAdmin
	}
	u, err := h.Store.CreateUser(r.Context(), req.Email, req.Username, hash, role)
	if errors.Is(err, ErrEmailTaken) {
		apperr.Write(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		apperr.Internal(w, r, err, "Registration failed")
		return
	}

	token, err := h.Sessions.Issue(u)
	if err != nil {
		apperr.Internal(w, r, err, "Registration failed")
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user registered")

	resp := map[string]any{"user": u.Public(), "token": token}
	if warn != nil {
		resp["passwordWarning"] = warn
	}
	httpx.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Write(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		apperr.Write(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Store.FindUserByEmail(r.Context(), req.Email)
	if errors.Is(err, ErrUserNotFound) {
		apperr.Write(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		apperr.Internal(w, r, err, "Login failed")
		return
	}
	ok, needsRehash, err := h.Passwords.Verify(strings.TrimSpace(req.Password), u.PasswordHash)
	if err != nil || !ok {
		apperr.Write(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if needsRehash {
		if phc, err := h.Passwords.Hash(strings.TrimSpace(req.Password)); err == nil {
			if err := h.Store.UpdateUserPasswordHash(r.Context(), u.ID, phc); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("user_id", u.ID).Msg("password rehash failed")
			}
		}
	}

	token, err := h.Sessions.Issue(u)
	if err != nil {
		apperr.Internal(w, r, err, "Login failed")
		return
	}
	httpx.OK(w, map[string]any{"user": u.Public(), "token": token})
}

// Logout always succeeds; a valid bearer token is deny-listed when redis is available.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if tok, err := middlewares.Bearer(r); err == nil {
		if s, err := h.Sessions.Verify(r.Context(), tok); err == nil {
			if err := h.Sessions.Revoke(r.Context(), s); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("token revoke failed")
			}
		}
	}
	httpx.OK(w, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := middlewares.SessionFrom(r.Context())
	if !ok {
		apperr.Write(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	u, err := h.Store.FindUserByID(r.Context(), s.UserID)
	if errors.Is(err, ErrUserNotFound) {
		apperr.Write(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		apperr.Internal(w, r, err, "Failed to load user")
		return
	}
	httpx.OK(w, map[string]any{"user": u.Public()})
}
