package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CronAuth guards the cron trigger with a shared secret. Only a bcrypt hash of
// the secret is kept in memory.
type CronAuth struct {
	hash []byte
}

// NewCronAuth hashes secret. An empty secret yields a CronAuth that rejects
// every request.
func NewCronAuth(secret string) (*CronAuth, error) {
	if secret == "" {
		return &CronAuth{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash cron secret: %w", err)
	}
	return &CronAuth{hash: hash}, nil
}

// Enabled reports whether a secret is configured
func (m *CronAuth) Enabled() bool {
	return len(m.hash) > 0
}

// Wrap wraps an http.Handler with cron secret authentication
func (m *CronAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			unauthorized(w, "Cron trigger is disabled")
			return
		}

		key := extractAPIKey(r)
		if key == "" {
			unauthorized(w, "Missing API key")
			return
		}

		if bcrypt.CompareHashAndPassword(m.hash, []byte(key)) != nil {
			log.Printf("CronAuth: Invalid API key attempt from %s", r.RemoteAddr)
			unauthorized(w, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractAPIKey extracts the API key from the request
// Supports: Authorization header (Bearer/ApiKey), X-API-Key header, query param
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		if strings.HasPrefix(authHeader, "ApiKey ") {
			return strings.TrimPrefix(authHeader, "ApiKey ")
		}
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}

	return r.URL.Query().Get("api_key")
}
