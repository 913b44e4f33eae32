package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/fec/internal/config"
	"github.com/JonMunkholm/fec/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against cfg.APIKeys when
// cfg.RequireAPIKey is set. With auth required and no keys configured every
// request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.FromContext(r.Context())

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logger.Warn("auth: missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				deny(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}

			if !isValidAPIKey(apiKey, cfg.APIKeys) {
				logger.Warn("auth: invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				deny(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// isValidAPIKey compares key against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
