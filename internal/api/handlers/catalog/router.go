// Package catalog serves the generic entity endpoints described by catalog.Resource.
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

// Mount registers the read, write, children and link routes of res on r.
// Writes go through admin.
func Mount(r chi.Router, s *storecatalog.Store, res *storecatalog.Resource, admin func(http.Handler) http.Handler) {
	r.Route("/"+res.Name, func(r chi.Router) {
		if res == storecatalog.Art {
			r.Get("/search", searchArt(s))
		}
		r.Get("/", list(s, res))
		r.Get("/{id}", get(s, res))
		for _, c := range res.Children {
			r.Get("/{id}/"+c.Name, children(s, res, c.Name))
		}

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", create(s, res))
			r.Put("/{id}", update(s, res))
			r.Patch("/{id}", update(s, res))
			r.Delete("/{id}", remove(s, res))
			for _, l := range res.Links {
				r.Post("/{id}/"+l.Target, addLink(s, res, l))
				r.Delete("/{id}/"+l.Target+"/{targetId}", removeLink(s, res, l))
			}
		})
	})
}
