package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Monitor is a configured HTTP endpoint under periodic observation.
// Rows are owned by the dashboard's CRUD layer; the engine only reads them and
// bumps LastChecked.
type Monitor struct {
	ID              string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	URL             string         `gorm:"type:text;not null" json:"url"`
	Method          string         `gorm:"type:varchar(10);not null;default:'GET'" json:"method"`
	HeadersJSON     datatypes.JSON `gorm:"column:headers_json" json:"headers_json,omitempty"` // Raw header object, parsed per probe
	Body            *string        `gorm:"type:text" json:"body,omitempty"`
	TimeoutMs       int            `gorm:"not null;default:10000" json:"timeout_ms"`
	IntervalSec     int            `gorm:"not null;default:60" json:"interval_sec"`
	IsPaused        bool           `gorm:"not null;default:false;index" json:"is_paused"`
	LastChecked     *time.Time     `json:"last_checked,omitempty"`
	WebhookURL      *string        `gorm:"type:text" json:"webhook_url,omitempty"`
	AlertsEnabled   bool           `gorm:"not null;default:false" json:"alerts_enabled"`
	SlackWebhookURL *string        `gorm:"type:text" json:"slack_webhook_url,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (m *Monitor) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Interval returns the minimum spacing between two checks
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.IntervalSec) * time.Second
}

// Timeout returns the hard deadline of a single probe
func (m *Monitor) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// Check is the immutable record of one probe attempt
type Check struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	MonitorID  string    `gorm:"type:varchar(36);not null;index:idx_checks_monitor_created,priority:1" json:"monitor_id"`
	OK         bool      `gorm:"not null" json:"ok"`
	StatusCode *int      `json:"status_code"`
	LatencyMs  *int64    `json:"latency_ms"`
	Error      *string   `gorm:"type:text" json:"error"`
	CreatedAt  time.Time `gorm:"index:idx_checks_monitor_created,priority:2" json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (c *Check) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Incident is a contiguous span of unavailability. ResolvedAt stays nil while
// the incident is open; at most one open incident exists per monitor.
type Incident struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	MonitorID       string     `gorm:"type:varchar(36);not null;index" json:"monitor_id"`
	Reason          string     `gorm:"type:text;not null" json:"reason"`
	StartedAt       time.Time  `gorm:"not null;index" json:"started_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	LastAlertSentAt *time.Time `json:"last_alert_sent_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID and StartedAt when not provided
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.StartedAt.IsZero() {
		i.StartedAt = time.Now()
	}
	return nil
}

// IsOpen reports whether the incident has not been resolved yet
func (i *Incident) IsOpen() bool {
	return i.ResolvedAt == nil
}

// AlertType is the kind of transition an alert reports
type AlertType string

const (
	AlertTypeDown     AlertType = "down"
	AlertTypeRecovery AlertType = "recovery"
	AlertTypePeriodic AlertType = "periodic"
)

// AlertStatus is the terminal delivery outcome of a dispatch
type AlertStatus string

const (
	AlertStatusSent   AlertStatus = "sent"
	AlertStatusFailed AlertStatus = "failed"
)

// Alert is one row of the notification audit log. Retries inside a single
// dispatch collapse into one row.
type Alert struct {
	ID         string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	MonitorID  string      `gorm:"type:varchar(36);not null;index" json:"monitor_id"`
	IncidentID *string     `gorm:"type:varchar(36);index" json:"incident_id,omitempty"`
	Type       AlertType   `gorm:"type:varchar(20);not null" json:"type"`
	Status     AlertStatus `gorm:"type:varchar(20);not null" json:"status"`
	Channel    string      `gorm:"type:varchar(20)" json:"channel,omitempty"` // webhook, slack or empty when delivery is disabled
	Message    string      `gorm:"type:text;not null" json:"message"`
	SentAt     time.Time   `gorm:"not null;index" json:"sent_at"`
	Error      *string     `gorm:"type:text" json:"error,omitempty"`

	Incident *Incident `gorm:"foreignKey:IncidentID" json:"incident,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (Monitor) TableName() string {
	return "monitors"
}

func (Check) TableName() string {
	return "checks"
}

func (Incident) TableName() string {
	return "incidents"
}

func (Alert) TableName() string {
	return "alerts"
}
