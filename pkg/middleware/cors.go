package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Headers a storefront front end may send and read cross-origin.
var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}, ", ")
	corsHeaders = strings.Join([]string{"Accept", "Content-Type", CorrelationHeader, SessionHeader}, ", ")
	corsExposed = strings.Join([]string{CorrelationHeader, "Retry-After"}, ", ")
)

// CORSConfig controls which browser origins may call the storefront API.
type CORSConfig struct {
	AllowedOrigins []string
	// AllowAnyOrigin echoes every request origin.
	AllowAnyOrigin bool
	// MaxAge bounds how long a browser caches a preflight. Zero means 10m.
	MaxAge time.Duration
}

// NewCORSConfig allows any origin in development or when origins contains
// "*", and exactly origins otherwise.
func NewCORSConfig(environment string, origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowAnyOrigin: environment == "development" || slices.Contains(origins, "*"),
	}
}

// CORS answers preflights for the storefront routes and marks allowed
// origins on actual requests. The session travels in a header, so
// credentials are never allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 10 * time.Minute
	}
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]
			ok := origin != "" && (cfg.AllowAnyOrigin || listed)
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			h := w.Header()
			h.Add("Vary", "Origin")
			if ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", corsExposed)
			}

			if preflight {
				if ok {
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
