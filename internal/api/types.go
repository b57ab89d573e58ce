package api

import (
	"time"

	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/jobs"
	"github.com/DhruvGupta005/uptime/internal/services"
)

// ========== Trigger Types ==========

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string      `json:"status"`
	Scheduler jobs.Status `json:"scheduler"`
	Clients   int         `json:"event_clients"`
}

// CronResponse is the response body for /api/cron.
type CronResponse = services.Tally

// RunCheckResponse is the response body for POST /api/monitors/{id}/run.
type RunCheckResponse struct {
	OK    bool            `json:"ok"`
	Check *database.Check `json:"check"`
}

// ========== Alert Types ==========

// TestAlertRequest is the request body for POST /api/monitors/{id}/test-alert.
// Without WebhookURL the monitor's configured endpoints are used; with it,
// Channel selects the transport and defaults to slack.
type TestAlertRequest struct {
	AlertType  string `json:"alert_type" validate:"omitempty,oneof=down recovery periodic"`
	WebhookURL string `json:"webhook_url" validate:"omitempty,http_url"`
	Channel    string `json:"channel" validate:"omitempty,oneof=webhook slack"`
}

// DeliveryResult reports the delivery of a test alert to one endpoint.
type DeliveryResult struct {
	Channel   string `json:"channel"`
	Delivered bool   `json:"delivered"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

// TestAlertResponse is the response body for a test alert.
type TestAlertResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
	Results []DeliveryResult `json:"results"`
}

// ========== List Types ==========

// Page is one page of a list response.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"total_pages"`
}

// IncidentSummary is the compact incident attached to alert list items.
type IncidentSummary struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// AlertListItem is an alert row as returned by the alert history endpoint.
type AlertListItem struct {
	ID         string               `json:"id"`
	MonitorID  string               `json:"monitor_id"`
	IncidentID *string              `json:"incident_id,omitempty"`
	Type       database.AlertType   `json:"type"`
	Status     database.AlertStatus `json:"status"`
	Channel    string               `json:"channel,omitempty"`
	Message    string               `json:"message"`
	SentAt     time.Time            `json:"sent_at"`
	Error      *string              `json:"error,omitempty"`
	Incident   *IncidentSummary     `json:"incident,omitempty"`
}
