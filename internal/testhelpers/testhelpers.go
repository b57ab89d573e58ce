// Package testhelpers provides reusable testing utilities for the uptime engine.
//
// This package contains:
// - HTTP test helpers (creating test servers, requests)
// - In-memory database setup
// - A controllable clock and a scripted webhook receiver
// - Assertion helpers
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DhruvGupta005/uptime/internal/database"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	headers := ctx.Request.Header.Clone()
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header = headers
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithAPIKey adds X-API-Key header
func (ctx *HTTPTestContext) WithAPIKey(key string) *HTTPTestContext {
	return ctx.WithHeader("X-API-Key", key)
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !bytes.Contains([]byte(body), []byte(substr)) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Database Helpers
// ========================================

// SetupTestDB opens a private in-memory SQLite database with the engine's
// schema. The pool is pinned to a single connection so every goroutine sees
// the same in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateMonitor inserts a monitor and fails the test on error
func CreateMonitor(t *testing.T, db *gorm.DB, m database.Monitor) database.Monitor {
	t.Helper()
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}
	return m
}

// AlertsFor returns all alert rows of a monitor in insertion order
func AlertsFor(t *testing.T, db *gorm.DB, monitorID string) []database.Alert {
	t.Helper()
	var alerts []database.Alert
	if err := db.Where("monitor_id = ?", monitorID).Order("sent_at asc").Find(&alerts).Error; err != nil {
		t.Fatalf("failed to load alerts: %v", err)
	}
	return alerts
}

// IncidentsFor returns all incidents of a monitor, oldest first
func IncidentsFor(t *testing.T, db *gorm.DB, monitorID string) []database.Incident {
	t.Helper()
	var incidents []database.Incident
	if err := db.Where("monitor_id = ?", monitorID).Order("started_at asc").Find(&incidents).Error; err != nil {
		t.Fatalf("failed to load incidents: %v", err)
	}
	return incidents
}

// CountOpenIncidents returns the number of unresolved incidents of a monitor
func CountOpenIncidents(t *testing.T, db *gorm.DB, monitorID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&database.Incident{}).Where("monitor_id = ? AND resolved_at IS NULL", monitorID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count open incidents: %v", err)
	}
	return n
}

// ========================================
// Clock
// ========================================

// Clock is a manually advanced time source for simulated probe sequences
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ========================================
// Scripted Webhook Receiver
// ========================================

// WebhookReceiver is an httptest server that answers with a scripted sequence
// of status codes and records every request it sees.
type WebhookReceiver struct {
	Server *httptest.Server

	mu       sync.Mutex
	statuses []int
	requests []ReceivedRequest
}

// ReceivedRequest is one request captured by WebhookReceiver
type ReceivedRequest struct {
	At   time.Time
	Body []byte
}

// NewWebhookReceiver starts a receiver. Each request consumes the next status;
// once the script is exhausted the last status repeats. An empty script
// answers 200.
func NewWebhookReceiver(t *testing.T, statuses ...int) *WebhookReceiver {
	t.Helper()
	wr := &WebhookReceiver{statuses: statuses}
	wr.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		wr.mu.Lock()
		idx := len(wr.requests)
		wr.requests = append(wr.requests, ReceivedRequest{At: time.Now(), Body: body})
		status := http.StatusOK
		if len(wr.statuses) > 0 {
			if idx >= len(wr.statuses) {
				idx = len(wr.statuses) - 1
			}
			status = wr.statuses[idx]
		}
		wr.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(wr.Server.Close)
	return wr
}

// URL returns the receiver's endpoint
func (wr *WebhookReceiver) URL() string {
	return wr.Server.URL
}

// Requests returns a copy of every captured request
func (wr *WebhookReceiver) Requests() []ReceivedRequest {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	out := make([]ReceivedRequest, len(wr.requests))
	copy(out, wr.requests)
	return out
}

// Count returns the number of requests received so far
func (wr *WebhookReceiver) Count() int {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return len(wr.requests)
}

// ========================================
// Assertion Helpers
// ========================================

// AssertEqual checks equality with a helpful error message
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertNoError checks that no error occurred
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertError checks that an error occurred
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// ========================================
// Timing Helpers
// ========================================

// MustCompleteWithin fails the test if the function takes longer than the timeout
func MustCompleteWithin(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(timeout):
		t.Fatalf("function did not complete within %v", timeout)
	}
}
