package router

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/api/apperr"
	"github.com/5w1tchy/book-art/internal/api/handlers"
	"github.com/5w1tchy/book-art/internal/api/handlers/catalog"
	"github.com/5w1tchy/book-art/internal/api/handlers/search"
	"github.com/5w1tchy/book-art/internal/api/handlers/uploads"
	"github.com/5w1tchy/book-art/internal/api/middlewares"
	"github.com/5w1tchy/book-art/internal/auth"
	"github.com/5w1tchy/book-art/internal/config"
	"github.com/5w1tchy/book-art/internal/store/cache"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
	storesearch "github.com/5w1tchy/book-art/internal/store/search"
)

// Deps is everything the route tree needs. RDB and Uploads may be nil.
type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	RDB      *redis.Client
	Auth     *auth.Handler
	Sessions middlewares.Verifier
	Uploads  uploads.Presigner
}

func Router(d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestID)
	r.Use(middlewares.Recovery)
	r.Use(middlewares.AccessLog)
	r.Use(middlewares.Metrics)
	r.Use(middlewares.ResponseTime)
	r.Use(middlewares.SecurityHeaders(cfg.Server.StrictSecurity))
	r.Use(middlewares.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middlewares.HPP(middlewares.DefaultHPPOptions()))
	r.Use(middlewares.BodySizeLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Root and ops
	r.Get("/", handlers.RootHandler)
	r.Get("/healthz", handlers.Health(healthChecks(d)...))
	r.Handle("/metrics", promhttp.Handler())

	gate := middlewares.RequireAdmin(d.Sessions)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewares.RateLimit(cfg.RateLimit, d.RDB))

		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.With(middlewares.LoginRateLimit(d.RDB, cfg.Auth.LoginMaxAttempt, cfg.Auth.LoginWindow)).
				Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.With(middlewares.RequireAuth(d.Sessions)).Get("/me", d.Auth.Me)
		})

		// Catalog
		cat := storecatalog.New(d.DB)
		cat.Cache = cache.New(d.RDB, "catalog", cfg.Redis.CacheTTL, cfg.Redis.CacheTimeout)
		for _, res := range storecatalog.All {
			catalog.Mount(r, cat, res, gate)
		}

		// Search
		r.Get("/search", search.Search(storesearch.New(d.DB)))

		// Uploads
		r.With(gate).Post("/uploads/presign", uploads.Presign(d.Uploads))

		mountAdmin(r, d, gate)
	})

	return r
}

func healthChecks(d Deps) []handlers.Check {
	checks := []handlers.Check{{Name: "database", Ping: d.DB.PingContext}}
	if d.RDB != nil {
		rdb := d.RDB
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}
