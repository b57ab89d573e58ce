package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrIncidentAlreadyOpen is returned when a monitor already has an open incident
	ErrIncidentAlreadyOpen = errors.New("monitor already has an open incident")
)

// Repository is the gorm-backed store the monitoring engine reads targets from
// and writes checks, incidents and alerts to.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on top of an open connection
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying connection
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// ListActiveTargets returns every monitor that is not paused
func (r *Repository) ListActiveTargets(ctx context.Context) ([]Monitor, error) {
	var monitors []Monitor
	if err := r.db.WithContext(ctx).Where("is_paused = ?", false).Find(&monitors).Error; err != nil {
		return nil, fmt.Errorf("failed to list active monitors: %w", err)
	}
	return monitors, nil
}

// GetTarget loads a monitor by ID. Returns ErrNotFound when it does not exist.
func (r *Repository) GetTarget(ctx context.Context, id string) (*Monitor, error) {
	var monitor Monitor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&monitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load monitor %s: %w", id, err)
	}
	return &monitor, nil
}

// RecordCheck appends a check row. ID and CreatedAt are filled in on the passed value.
func (r *Repository) RecordCheck(ctx context.Context, check *Check) error {
	if err := r.db.WithContext(ctx).Create(check).Error; err != nil {
		return fmt.Errorf("failed to record check for monitor %s: %w", check.MonitorID, err)
	}
	return nil
}

// UpdateLastChecked stamps the monitor with the time of its latest probe
func (r *Repository) UpdateLastChecked(ctx context.Context, monitorID string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Monitor{}).
		Where("id = ?", monitorID).
		UpdateColumn("last_checked", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last_checked for monitor %s: %w", monitorID, err)
	}
	return nil
}

// LatestIncident returns the most recently started incident of a monitor, or
// nil when the monitor never had one.
func (r *Repository) LatestIncident(ctx context.Context, monitorID string) (*Incident, error) {
	var incident Incident
	err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("started_at desc").
		First(&incident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest incident for monitor %s: %w", monitorID, err)
	}
	return &incident, nil
}

// CreateIncident opens a new incident. The down notification sent for it counts
// as the first alert, so LastAlertSentAt starts at the open time.
// Returns ErrIncidentAlreadyOpen if another open incident exists.
func (r *Repository) CreateIncident(ctx context.Context, monitorID, reason string, at time.Time) (*Incident, error) {
	incident := &Incident{
		MonitorID:       monitorID,
		Reason:          reason,
		StartedAt:       at,
		LastAlertSentAt: &at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&Incident{}).
			Where("monitor_id = ? AND resolved_at IS NULL", monitorID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrIncidentAlreadyOpen
		}
		return tx.Create(incident).Error
	})
	switch {
	case errors.Is(err, ErrIncidentAlreadyOpen), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrIncidentAlreadyOpen
	case err != nil:
		return nil, fmt.Errorf("failed to create incident for monitor %s: %w", monitorID, err)
	}
	return incident, nil
}

// ResolveIncident closes an open incident. Resolving an already closed
// incident is a no-op.
func (r *Repository) ResolveIncident(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Incident{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to resolve incident %s: %w", id, err)
	}
	return nil
}

// UpdateIncidentAlertTime records when the last notification for an incident went out
func (r *Repository) UpdateIncidentAlertTime(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Incident{}).
		Where("id = ?", id).
		Update("last_alert_sent_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update alert time of incident %s: %w", id, err)
	}
	return nil
}

// RecordAlert appends a row to the alert audit log
func (r *Repository) RecordAlert(ctx context.Context, alert *Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to record %s alert for monitor %s: %w", alert.Type, alert.MonitorID, err)
	}
	return nil
}

// ListAlerts returns a page of a monitor's alerts, newest first, with the
// related incident preloaded.
func (r *Repository) ListAlerts(ctx context.Context, monitorID string, offset, limit int) ([]Alert, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&Alert{}).Where("monitor_id = ?", monitorID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	var alerts []Alert
	err := r.db.WithContext(ctx).
		Preload("Incident").
		Where("monitor_id = ?", monitorID).
		Order("sent_at desc").
		Offset(offset).Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, total, nil
}

// ListChecks returns a page of a monitor's checks, newest first
func (r *Repository) ListChecks(ctx context.Context, monitorID string, offset, limit int) ([]Check, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Check{}).Where("monitor_id = ?", monitorID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count checks: %w", err)
	}

	var checks []Check
	err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&checks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list checks: %w", err)
	}
	return checks, total, nil
}

// ListIncidents returns a page of a monitor's incidents, most recent first
func (r *Repository) ListIncidents(ctx context.Context, monitorID string, offset, limit int) ([]Incident, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Incident{}).Where("monitor_id = ?", monitorID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", err)
	}

	var incidents []Incident
	err := r.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("started_at desc").
		Offset(offset).Limit(limit).
		Find(&incidents).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, total, nil
}
