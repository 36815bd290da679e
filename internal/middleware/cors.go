package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

const defaultOrigin = "http://localhost:3000"

// CORS handles CORS headers and OPTIONS preflight requests for the allowed origins
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// CORSFromEnv builds CORS middleware from a comma-separated FRONTEND_URL.
// http://localhost:3000 is always allowed.
func CORSFromEnv(frontendURL string) func(http.Handler) http.Handler {
	return CORS(ParseOrigins(frontendURL))
}

// ParseOrigins splits a comma-separated origin list, dropping blanks and duplicates
func ParseOrigins(frontendURL string) []string {
	origins := []string{defaultOrigin}
	seen := map[string]bool{defaultOrigin: true}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}
