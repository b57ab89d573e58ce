package alerts

import (
	"context"
	"strings"

	"github.com/DhruvGupta005/uptime/internal/database"
)

// EndpointKind names the transport an endpoint is delivered through
type EndpointKind string

const (
	// KindRecordOnly endpoints are audited but never contacted
	KindRecordOnly EndpointKind = ""
	KindWebhook    EndpointKind = "webhook"
	KindSlack      EndpointKind = "slack"
)

// Endpoint is one delivery destination for a monitor's alerts
type Endpoint struct {
	Kind EndpointKind
	URL  string
}

// RecordOnly is the endpoint used when a monitor has no delivery configured
var RecordOnly = Endpoint{Kind: KindRecordOnly}

// EndpointsFor returns the delivery endpoints configured on a monitor.
// An empty result means alerts are recorded without delivery.
func EndpointsFor(m *database.Monitor) []Endpoint {
	var endpoints []Endpoint
	if m.WebhookURL != nil && strings.TrimSpace(*m.WebhookURL) != "" {
		endpoints = append(endpoints, Endpoint{Kind: KindWebhook, URL: strings.TrimSpace(*m.WebhookURL)})
	}
	if m.AlertsEnabled && m.SlackWebhookURL != nil && strings.TrimSpace(*m.SlackWebhookURL) != "" {
		endpoints = append(endpoints, Endpoint{Kind: KindSlack, URL: strings.TrimSpace(*m.SlackWebhookURL)})
	}
	return endpoints
}

// Transport delivers one attempt of a notification to an endpoint URL.
// A nil error means the receiver acknowledged with a 2xx status.
type Transport interface {
	// Kind returns the endpoint kind this transport serves
	Kind() EndpointKind

	// Send performs a single delivery attempt; retries are the dispatcher's job
	Send(ctx context.Context, url string, n Notification, message string) error
}
