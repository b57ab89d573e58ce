// Package incidents turns probe outcomes into incident transitions and alert intents.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/utils"
)

// DefaultRealertInterval is the minimum spacing of reminders for an ongoing incident
const DefaultRealertInterval = 15 * time.Minute

// Store is the incident persistence the manager needs
type Store interface {
	LatestIncident(ctx context.Context, monitorID string) (*database.Incident, error)
	CreateIncident(ctx context.Context, monitorID, reason string, at time.Time) (*database.Incident, error)
	ResolveIncident(ctx context.Context, id string, at time.Time) error
	UpdateIncidentAlertTime(ctx context.Context, id string, at time.Time) error
}

// Observation is the probe outcome the manager evaluates
type Observation struct {
	OK         bool
	StatusCode *int
	Error      string
	At         time.Time
}

// Reason describes a failed observation: the error text, or the HTTP status
func (o Observation) Reason() string {
	if o.Error != "" {
		return o.Error
	}
	if o.StatusCode != nil {
		return fmt.Sprintf("HTTP %d", *o.StatusCode)
	}
	return "Request failed"
}

// Transition names what an evaluation did to the monitor's incident state
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionOpened   Transition = "opened"
	TransitionReminded Transition = "reminded"
	TransitionResolved Transition = "resolved"
)

// Decision is the result of one evaluation. Notification is nil when nothing
// should be sent.
type Decision struct {
	Transition   Transition
	Incident     *database.Incident
	Notification alerts.Notification
}

// Manager is the per-monitor Healthy/Down state machine. State lives in the
// store; every evaluation re-reads it.
type Manager struct {
	store           Store
	locks           *TargetLocks
	realertInterval time.Duration
}

// NewManager creates a manager. A non-positive interval uses DefaultRealertInterval.
func NewManager(store Store, realertInterval time.Duration) *Manager {
	if realertInterval <= 0 {
		realertInterval = DefaultRealertInterval
	}
	return &Manager{
		store:           store,
		locks:           NewTargetLocks(),
		realertInterval: realertInterval,
	}
}

// Evaluate applies one observation to the monitor's incident state. All state
// changes are persisted before it returns; delivery is left to the caller.
func (m *Manager) Evaluate(ctx context.Context, monitor *database.Monitor, obs Observation) (Decision, error) {
	unlock := m.locks.Lock(monitor.ID)
	defer unlock()

	latest, err := m.store.LatestIncident(ctx, monitor.ID)
	if err != nil {
		return Decision{Transition: TransitionNone}, err
	}
	var open *database.Incident
	if latest != nil && latest.IsOpen() {
		open = latest
	}

	switch {
	case !obs.OK && open == nil:
		return m.open(ctx, monitor, obs)
	case !obs.OK:
		return m.remind(ctx, monitor, open, obs)
	case open != nil:
		return m.resolve(ctx, monitor, open, obs)
	default:
		return Decision{Transition: TransitionNone}, nil
	}
}

func (m *Manager) open(ctx context.Context, monitor *database.Monitor, obs Observation) (Decision, error) {
	reason := obs.Reason()
	incident, err := m.store.CreateIncident(ctx, monitor.ID, reason, obs.At)
	if errors.Is(err, database.ErrIncidentAlreadyOpen) {
		log.Printf("IncidentManager: Monitor %s already has an open incident, skipping", monitor.ID)
		return Decision{Transition: TransitionNone}, nil
	}
	if err != nil {
		return Decision{Transition: TransitionNone}, err
	}

	log.Printf("IncidentManager: Opened incident %s for monitor %s: %s", incident.ID, monitor.ID, reason)
	return Decision{
		Transition: TransitionOpened,
		Incident:   incident,
		Notification: alerts.Down{
			Meta:   alerts.MetaFor(monitor, incident.ID, obs.At),
			Reason: reason,
		},
	}, nil
}

func (m *Manager) remind(ctx context.Context, monitor *database.Monitor, open *database.Incident, obs Observation) (Decision, error) {
	last := open.StartedAt
	if open.LastAlertSentAt != nil {
		last = *open.LastAlertSentAt
	}
	if obs.At.Sub(last) < m.realertInterval {
		return Decision{Transition: TransitionNone, Incident: open}, nil
	}

	if err := m.store.UpdateIncidentAlertTime(ctx, open.ID, obs.At); err != nil {
		return Decision{Transition: TransitionNone, Incident: open}, err
	}
	at := obs.At
	open.LastAlertSentAt = &at

	return Decision{
		Transition: TransitionReminded,
		Incident:   open,
		Notification: alerts.Periodic{
			Meta:            alerts.MetaFor(monitor, open.ID, obs.At),
			DowntimeMinutes: utils.DowntimeMinutes(open.StartedAt, obs.At),
			Reason:          obs.Reason(),
		},
	}, nil
}

func (m *Manager) resolve(ctx context.Context, monitor *database.Monitor, open *database.Incident, obs Observation) (Decision, error) {
	if err := m.store.ResolveIncident(ctx, open.ID, obs.At); err != nil {
		return Decision{Transition: TransitionNone, Incident: open}, err
	}
	at := obs.At
	open.ResolvedAt = &at
	minutes := utils.DowntimeMinutes(open.StartedAt, obs.At)

	log.Printf("IncidentManager: Resolved incident %s for monitor %s after %s", open.ID, monitor.ID, utils.FormatDowntime(minutes))
	return Decision{
		Transition: TransitionResolved,
		Incident:   open,
		Notification: alerts.Recovery{
			Meta:            alerts.MetaFor(monitor, open.ID, obs.At),
			DowntimeMinutes: minutes,
		},
	}, nil
}
