// Package testhelpers provides additional data builders for testing
package testhelpers

import (
	"time"

	"gorm.io/datatypes"

	"github.com/DhruvGupta005/uptime/internal/database"
)

// ========================================
// Monitor Builder
// ========================================

// MonitorBuilder builds Monitor instances for testing
type MonitorBuilder struct {
	monitor database.Monitor
}

// NewMonitorBuilder creates a new monitor builder with defaults
func NewMonitorBuilder() *MonitorBuilder {
	return &MonitorBuilder{
		monitor: database.Monitor{
			UserID:      "user-1",
			Name:        "test-monitor",
			URL:         "http://127.0.0.1:1/health",
			Method:      "GET",
			TimeoutMs:   2000,
			IntervalSec: 60,
		},
	}
}

// WithID sets the monitor ID
func (b *MonitorBuilder) WithID(id string) *MonitorBuilder {
	b.monitor.ID = id
	return b
}

// WithUserID sets the owner
func (b *MonitorBuilder) WithUserID(userID string) *MonitorBuilder {
	b.monitor.UserID = userID
	return b
}

// WithName sets the monitor name
func (b *MonitorBuilder) WithName(name string) *MonitorBuilder {
	b.monitor.Name = name
	return b
}

// WithURL sets the probed URL
func (b *MonitorBuilder) WithURL(url string) *MonitorBuilder {
	b.monitor.URL = url
	return b
}

// WithMethod sets the HTTP method
func (b *MonitorBuilder) WithMethod(method string) *MonitorBuilder {
	b.monitor.Method = method
	return b
}

// WithHeaders sets the raw serialized header object
func (b *MonitorBuilder) WithHeaders(raw string) *MonitorBuilder {
	b.monitor.HeadersJSON = datatypes.JSON(raw)
	return b
}

// WithBody sets the request body
func (b *MonitorBuilder) WithBody(body string) *MonitorBuilder {
	b.monitor.Body = &body
	return b
}

// WithTimeout sets the probe timeout in milliseconds
func (b *MonitorBuilder) WithTimeout(ms int) *MonitorBuilder {
	b.monitor.TimeoutMs = ms
	return b
}

// WithInterval sets the check interval in seconds
func (b *MonitorBuilder) WithInterval(sec int) *MonitorBuilder {
	b.monitor.IntervalSec = sec
	return b
}

// Paused marks the monitor as paused
func (b *MonitorBuilder) Paused() *MonitorBuilder {
	b.monitor.IsPaused = true
	return b
}

// LastCheckedAt sets the last probe time
func (b *MonitorBuilder) LastCheckedAt(at time.Time) *MonitorBuilder {
	b.monitor.LastChecked = &at
	return b
}

// WithWebhook sets the generic webhook endpoint
func (b *MonitorBuilder) WithWebhook(url string) *MonitorBuilder {
	b.monitor.WebhookURL = &url
	return b
}

// WithSlack enables the Slack alert channel
func (b *MonitorBuilder) WithSlack(url string) *MonitorBuilder {
	b.monitor.AlertsEnabled = true
	b.monitor.SlackWebhookURL = &url
	return b
}

// Build returns the constructed monitor
func (b *MonitorBuilder) Build() database.Monitor {
	return b.monitor
}

// ========================================
// Incident Builder
// ========================================

// IncidentBuilder builds Incident instances for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates a new open incident builder
func NewIncidentBuilder(monitorID string) *IncidentBuilder {
	now := time.Now().UTC()
	return &IncidentBuilder{
		incident: database.Incident{
			MonitorID:       monitorID,
			Reason:          "HTTP 500",
			StartedAt:       now,
			LastAlertSentAt: &now,
		},
	}
}

// WithReason sets the reason
func (b *IncidentBuilder) WithReason(reason string) *IncidentBuilder {
	b.incident.Reason = reason
	return b
}

// StartedAt sets the start time and initial alert time
func (b *IncidentBuilder) StartedAt(at time.Time) *IncidentBuilder {
	b.incident.StartedAt = at
	b.incident.LastAlertSentAt = &at
	return b
}

// LastAlertAt sets the time of the most recent notification
func (b *IncidentBuilder) LastAlertAt(at time.Time) *IncidentBuilder {
	b.incident.LastAlertSentAt = &at
	return b
}

// ResolvedAt closes the incident
func (b *IncidentBuilder) ResolvedAt(at time.Time) *IncidentBuilder {
	b.incident.ResolvedAt = &at
	return b
}

// Build returns the constructed incident
func (b *IncidentBuilder) Build() database.Incident {
	return b.incident
}
