package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS allows the storefront client origin plus the local dev servers.
// Credentials are allowed so the session cookie travels.
func CORS(clientURL string) func(http.Handler) http.Handler {
	origins := append([]string{}, defaultCORSOrigins...)
	if trimmed := strings.TrimRight(strings.TrimSpace(clientURL), "/"); trimmed != "" {
		origins = append(origins, trimmed)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", "Server-Timing"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
