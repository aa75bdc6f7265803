package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	admin "github.com/5w1tchy/book-art/internal/api/handlers/admin"
	adminstore "github.com/5w1tchy/book-art/internal/store/admin"
)

// mountAdmin wires all /api/admin/* endpoints behind gate.
func mountAdmin(r chi.Router, d Deps, gate func(http.Handler) http.Handler) {
	adminH := admin.NewHandler(d.RDB, adminstore.New(d.DB))

	r.Route("/admin", func(r chi.Router) {
		r.Use(gate)

		// Stats
		r.Get("/stats", adminH.Stats)

		// Users
		r.Get("/users", adminH.ListUsers)
		r.Get("/users/{id}", adminH.GetUser)
		r.Put("/users/{id}/role", adminH.SetRole)
	})
}
