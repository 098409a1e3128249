package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser calls from allowedOrigin and answers preflight
// requests itself. An allowedOrigin of "*" allows any origin.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       []string{allowedOrigin},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Accept", "Content-Type"},
		ExposedHeaders:       []string{"X-Stream-ID"},
		AllowCredentials:     false,
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	})
}
