package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig allows any origin to call the signup API from a browser.
var DefaultCORSConfig = CORSConfig{
	AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	MaxAge:       12 * time.Hour,
}

// CORS permits every origin on every route. Preflight requests get the
// allowed method, headers and max-age, then still reach the router, which
// answers them.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     cfg.AllowMethods,
		AllowedHeaders:     cfg.AllowHeaders,
		MaxAge:             int(cfg.MaxAge.Seconds()),
		OptionsPassthrough: true,
	})
}
