package api

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
)

func TestAlertToListItem(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	incidentID := "inc-1"
	a := database.Alert{
		ID:         "alert-1",
		MonitorID:  "mon-1",
		IncidentID: &incidentID,
		Type:       database.AlertTypeDown,
		Status:     database.AlertStatusSent,
		Channel:    "webhook",
		Message:    "down",
		SentAt:     started,
		Incident:   &database.Incident{ID: incidentID, MonitorID: "mon-1", Reason: "HTTP 500", StartedAt: started},
	}

	got := AlertToListItem(a)
	want := &IncidentSummary{ID: incidentID, StartedAt: started}
	if diff := cmp.Diff(want, got.Incident); diff != "" {
		t.Errorf("incident summary mismatch (-want +got):\n%s", diff)
	}
	if got.Channel != "webhook" || got.Type != database.AlertTypeDown {
		t.Errorf("unexpected item: %+v", got)
	}

	a.Incident = nil
	if got := AlertToListItem(a); got.Incident != nil {
		t.Errorf("expected no incident summary, got %+v", got.Incident)
	}
}

func TestOutcomesToResults(t *testing.T) {
	outcomes := []alerts.Outcome{
		{Endpoint: alerts.Endpoint{Kind: alerts.KindWebhook}, Delivered: true, Attempts: 1},
		{Endpoint: alerts.Endpoint{Kind: alerts.KindSlack}, Attempts: 3, LastError: "webhook returned HTTP 500", AuditErr: errors.New("db down")},
	}

	want := []DeliveryResult{
		{Channel: "webhook", Delivered: true, Attempts: 1},
		{Channel: "slack", Attempts: 3, Error: "webhook returned HTTP 500"},
	}
	if diff := cmp.Diff(want, OutcomesToResults(outcomes)); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if AllDelivered(outcomes) {
		t.Error("AllDelivered should be false with a failed outcome")
	}
	if !AllDelivered(outcomes[:1]) {
		t.Error("AllDelivered should be true when every outcome delivered")
	}
	if AllDelivered(nil) {
		t.Error("AllDelivered should be false with no outcomes")
	}
}
