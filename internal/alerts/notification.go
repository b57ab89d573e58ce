package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/utils"
)

// TimeLayout is how timestamps appear in human-readable alert text
const TimeLayout = "2006-01-02 15:04:05 UTC"

// Meta identifies the monitor and incident a notification is about
type Meta struct {
	OwnerID     string
	MonitorID   string
	MonitorName string
	MonitorURL  string
	IncidentID  string
	Timestamp   time.Time
}

// Notification is one of Down, Recovery or Periodic. The set is closed.
type Notification interface {
	Type() database.AlertType
	Info() Meta
	notification()
}

// Down reports that a healthy monitor started failing
type Down struct {
	Meta
	Reason string
}

// Recovery reports that a failing monitor is healthy again
type Recovery struct {
	Meta
	DowntimeMinutes int
}

// Periodic is a reminder that a monitor is still failing
type Periodic struct {
	Meta
	DowntimeMinutes int
	Reason          string
}

func (Down) Type() database.AlertType     { return database.AlertTypeDown }
func (Recovery) Type() database.AlertType { return database.AlertTypeRecovery }
func (Periodic) Type() database.AlertType { return database.AlertTypePeriodic }

func (n Down) Info() Meta     { return n.Meta }
func (n Recovery) Info() Meta { return n.Meta }
func (n Periodic) Info() Meta { return n.Meta }

func (Down) notification()     {}
func (Recovery) notification() {}
func (Periodic) notification() {}

// MetaFor builds notification metadata for a monitor
func MetaFor(m *database.Monitor, incidentID string, at time.Time) Meta {
	return Meta{
		OwnerID:     m.UserID,
		MonitorID:   m.ID,
		MonitorName: m.Name,
		MonitorURL:  m.URL,
		IncidentID:  incidentID,
		Timestamp:   at,
	}
}

// Compose renders the human-readable alert text. The same text is stored on
// the audit row and sent as the "text" field.
func Compose(n Notification) string {
	meta := n.Info()
	header := func(headline string) []string {
		return []string{
			headline,
			"URL: " + meta.MonitorURL,
			"Time: " + meta.Timestamp.UTC().Format(TimeLayout),
		}
	}

	var lines []string
	switch v := n.(type) {
	case Down:
		lines = header(fmt.Sprintf("🚨 Monitor %q is DOWN", meta.MonitorName))
		lines = append(lines, "Reason: "+reasonOrDefault(v.Reason))
	case Periodic:
		lines = header(fmt.Sprintf("🚨 Monitor %q is still DOWN", meta.MonitorName))
		lines = append(lines,
			"Downtime: "+utils.FormatDowntime(v.DowntimeMinutes),
			"Reason: "+reasonOrDefault(v.Reason),
		)
	case Recovery:
		lines = header(fmt.Sprintf("✅ Monitor %q is UP", meta.MonitorName))
		if v.DowntimeMinutes > 0 {
			lines = append(lines, "Downtime: "+utils.FormatDowntime(v.DowntimeMinutes))
		}
	default:
		panic(fmt.Sprintf("alerts: unknown notification %T", n))
	}
	return strings.Join(lines, "\n")
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return "Service unreachable"
	}
	return reason
}

// Status is the monitor state a notification announces: "down" or "up"
func Status(n Notification) string {
	if _, ok := n.(Recovery); ok {
		return "up"
	}
	return "down"
}

// Reason returns the failure reason carried by the notification, if any
func Reason(n Notification) string {
	switch v := n.(type) {
	case Down:
		return v.Reason
	case Periodic:
		return v.Reason
	}
	return ""
}

// Downtime returns the downtime in minutes carried by the notification, if any
func Downtime(n Notification) int {
	switch v := n.(type) {
	case Recovery:
		return v.DowntimeMinutes
	case Periodic:
		return v.DowntimeMinutes
	}
	return 0
}

// WebhookPayload is the JSON body posted to generic webhook endpoints
type WebhookPayload struct {
	Text     string         `json:"text"`
	Monitor  WebhookMonitor `json:"monitor"`
	Reason   string         `json:"reason,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Type     string         `json:"type"`
}

// WebhookMonitor is the monitor section of WebhookPayload
type WebhookMonitor struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewWebhookPayload builds the wire payload for a notification
func NewWebhookPayload(n Notification, message string) WebhookPayload {
	meta := n.Info()
	payload := WebhookPayload{
		Text: message,
		Monitor: WebhookMonitor{
			Name:      meta.MonitorName,
			URL:       meta.MonitorURL,
			Status:    Status(n),
			Timestamp: meta.Timestamp.UTC().Format(time.RFC3339),
		},
		Reason: Reason(n),
		Type:   string(n.Type()),
	}
	if d := Downtime(n); d > 0 {
		payload.Duration = fmt.Sprintf("%d minutes", d)
	}
	return payload
}
