package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
)

// ErrNoEndpoint is returned when a test alert has nowhere to go
var ErrNoEndpoint = errors.New("no alert endpoint configured")

// Sample downtimes used by test alerts
const (
	testRecoveryMinutes = 45
	testPeriodicMinutes = 60
)

// GetOwnedMonitor loads a monitor that belongs to userID. Monitors of other
// users are reported as database.ErrNotFound.
func (s *CheckService) GetOwnedMonitor(ctx context.Context, id, userID string) (*database.Monitor, error) {
	m, err := s.repo.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, database.ErrNotFound
	}
	return m, nil
}

// SampleNotification builds the sample notification sent by SendTestAlert
func SampleNotification(m *database.Monitor, kind database.AlertType, meta alerts.Meta) alerts.Notification {
	switch kind {
	case database.AlertTypeRecovery:
		return alerts.Recovery{Meta: meta, DowntimeMinutes: testRecoveryMinutes}
	case database.AlertTypePeriodic:
		return alerts.Periodic{
			Meta:            meta,
			DowntimeMinutes: testPeriodicMinutes,
			Reason:          "This is a test notification - Periodic Alert",
		}
	default:
		return alerts.Down{Meta: meta, Reason: "This is a test notification - Website Down Alert"}
	}
}

// SendTestAlert synchronously delivers a sample notification of the given
// kind. When endpoint is nil the monitor's configured endpoints are used.
func (s *CheckService) SendTestAlert(ctx context.Context, m *database.Monitor, kind database.AlertType, endpoint *alerts.Endpoint) ([]alerts.Outcome, error) {
	endpoints := alerts.EndpointsFor(m)
	if endpoint != nil {
		endpoints = []alerts.Endpoint{*endpoint}
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoint
	}

	n := SampleNotification(m, kind, alerts.MetaFor(m, "", s.now()))
	return s.dispatcher.DispatchAll(ctx, endpoints, n), nil
}

// ListAlerts returns a page of the monitor's alert history
func (s *CheckService) ListAlerts(ctx context.Context, monitorID string, offset, limit int) ([]database.Alert, int64, error) {
	rows, total, err := s.repo.ListAlerts(ctx, monitorID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return rows, total, nil
}

// ListChecks returns a page of the monitor's check history
func (s *CheckService) ListChecks(ctx context.Context, monitorID string, offset, limit int) ([]database.Check, int64, error) {
	checks, total, err := s.repo.ListChecks(ctx, monitorID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list checks: %w", err)
	}
	return checks, total, nil
}

// ListIncidents returns a page of the monitor's incidents
func (s *CheckService) ListIncidents(ctx context.Context, monitorID string, offset, limit int) ([]database.Incident, int64, error) {
	incidents, total, err := s.repo.ListIncidents(ctx, monitorID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, total, nil
}

// Drain waits for in-flight alert dispatches
func (s *CheckService) Drain() {
	s.dispatcher.Wait()
}
