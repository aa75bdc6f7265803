package admin

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/httpx"
	"github.com/5w1tchy/book-art/internal/validate"
)

// GET /api/admin/users?q=&role=&page=&limit=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size := validate.Page(q.Get("page"), q.Get("limit"), 25, 200)

	filter := ListFilter{
		Query: q.Get("q"),
		Role:  q.Get("role"),
		Page:  page,
		Size:  size,
	}
	if filter.Role != "" && !validRole(filter.Role) {
		apperr.Write(w, http.StatusBadRequest, "role must be user or admin")
		return
	}

	users, total, err := h.Sto.ListUsers(r.Context(), filter)
	if err != nil {
		apperr.Internal(w, r, err, "Failed to fetch users")
		return
	}

	httpx.OK(w, map[string]any{
		"users": users, "total": total, "page": page, "limit": size,
	})
}

// GET /api/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if !validate.IsUUID(id) {
		apperr.Write(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.Sto.GetUser(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		apperr.Write(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		apperr.Internal(w, r, err, "Failed to fetch user")
		return
	}

	httpx.OK(w, map[string]any{"user": user})
}

// PUT /api/admin/users/{id}/role
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	adminID := getAdminID(r.Context())
	userID := pathID(r)
	if !validate.IsUUID(userID) {
		apperr.Write(w, http.StatusNotFound, "User not found")
		return
	}

	var body SetRoleRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		apperr.Write(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		apperr.Write(w, http.StatusBadRequest, "role must be user or admin")
		return
	}

	// The last admin cannot demote themselves
	if adminID == userID && body.Role != "admin" {
		count, err := h.Sto.AdminCount(r.Context())
		if err != nil {
			apperr.Internal(w, r, err, "Failed to update role")
			return
		}
		if count <= 1 {
			apperr.Write(w, http.StatusBadRequest, "Cannot demote the last admin")
			return
		}
	}

	if !h.checkRateLimit(r.Context(), w, "setrole", adminID, 50, time.Hour) {
		return
	}

	err := h.Sto.SetUserRole(r.Context(), userID, body.Role)
	if errors.Is(err, sql.ErrNoRows) {
		apperr.Write(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		apperr.Internal(w, r, err, "Failed to update role")
		return
	}

	httpx.OK(w, map[string]string{"message": "Role updated successfully"})
}

func validRole(role string) bool {
	return role == "admin" || role == "user"
}
