// Package handlers holds the small top-level handlers; resource handlers live in subpackages.
package handlers

import (
	"net/http"

	"github.com/5w1tchy/book-art/internal/api/httpx"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, map[string]string{
		"name":   "book-art",
		"api":    "/api",
		"health": "/healthz",
	})
}
