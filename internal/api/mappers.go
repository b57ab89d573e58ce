package api

import (
	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
)

// AlertToListItem converts a database Alert to its list representation,
// reducing a preloaded incident to its summary.
func AlertToListItem(a database.Alert) AlertListItem {
	item := AlertListItem{
		ID:         a.ID,
		MonitorID:  a.MonitorID,
		IncidentID: a.IncidentID,
		Type:       a.Type,
		Status:     a.Status,
		Channel:    a.Channel,
		Message:    a.Message,
		SentAt:     a.SentAt,
		Error:      a.Error,
	}
	if a.Incident != nil {
		item.Incident = &IncidentSummary{
			ID:         a.Incident.ID,
			StartedAt:  a.Incident.StartedAt,
			ResolvedAt: a.Incident.ResolvedAt,
		}
	}
	return item
}

// AlertsToListItems converts a slice of database Alerts to list items.
func AlertsToListItems(rows []database.Alert) []AlertListItem {
	items := make([]AlertListItem, len(rows))
	for i, a := range rows {
		items[i] = AlertToListItem(a)
	}
	return items
}

// OutcomesToResults converts dispatch outcomes to delivery results.
func OutcomesToResults(outcomes []alerts.Outcome) []DeliveryResult {
	results := make([]DeliveryResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = DeliveryResult{
			Channel:   string(o.Endpoint.Kind),
			Delivered: o.Delivered,
			Attempts:  o.Attempts,
			Error:     o.LastError,
		}
	}
	return results
}

// AllDelivered reports whether every outcome was delivered.
func AllDelivered(outcomes []alerts.Outcome) bool {
	for _, o := range outcomes {
		if !o.Delivered {
			return false
		}
	}
	return len(outcomes) > 0
}
