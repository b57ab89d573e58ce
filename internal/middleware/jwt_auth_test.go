package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-jwt-secret"

func userEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(GetUserFromContext(r.Context())))
	})
}

func TestJWTAuth_ValidToken(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	token, err := auth.GenerateToken("user-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/monitors/m1/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	auth.Wrap(userEcho()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "user-42" {
		t.Errorf("user in context = %q, want user-42", got)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	expired, _ := auth.GenerateToken("user-42", -time.Minute)
	otherSecret, _ := NewJWTAuth("another-secret").GenerateToken("user-42", time.Hour)
	noSubject, _ := auth.GenerateToken("", time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-42"}).SignedString([]byte(testSecret))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage", "Bearer not-a-jwt"},
		{"expired", "Bearer " + expired},
		{"wrong secret", "Bearer " + otherSecret},
		{"no subject", "Bearer " + noSubject},
		{"no expiry", "Bearer " + noExpiry},
		{"wrong algorithm", "Bearer " + wrongAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/monitors/m1/alerts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			auth.Wrap(userEcho()).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestJWTAuth_QueryTokenOnlyForWebsocket(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	token, _ := auth.GenerateToken("user-7", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/events?token="+token, nil)
	w := httptest.NewRecorder()
	auth.Wrap(userEcho()).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("plain request with query token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/events?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	auth.Wrap(userEcho()).ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "user-7" {
		t.Errorf("websocket upgrade with query token: status = %d, body = %q", w.Code, w.Body.String())
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	if got := GetUserFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user, got %q", got)
	}
}
