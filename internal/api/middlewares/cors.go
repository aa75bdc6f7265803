package middlewares

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured browser origins. Auth travels in the Authorization
// header, so credentials (cookies) are not allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"X-Request-ID", "X-Response-Time", "Retry-After",
			"X-RateLimit-Policy", "X-RateLimit-Limit", "X-RateLimit-Remaining",
		},
		AllowCredentials: false,
		MaxAge:           3600,
	})
}
