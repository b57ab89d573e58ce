package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/events"
	"github.com/DhruvGupta005/uptime/internal/incidents"
	"github.com/DhruvGupta005/uptime/internal/probe"
	"github.com/DhruvGupta005/uptime/internal/utils"
)

// DefaultMaxConcurrency bounds how many monitors one tick probes at once
const DefaultMaxConcurrency = 16

// Repository is the storage the check pipeline reads and writes
type Repository interface {
	incidents.Store
	alerts.AuditLog

	ListActiveTargets(ctx context.Context) ([]database.Monitor, error)
	GetTarget(ctx context.Context, id string) (*database.Monitor, error)
	RecordCheck(ctx context.Context, check *database.Check) error
	UpdateLastChecked(ctx context.Context, monitorID string, at time.Time) error

	ListAlerts(ctx context.Context, monitorID string, offset, limit int) ([]database.Alert, int64, error)
	ListChecks(ctx context.Context, monitorID string, offset, limit int) ([]database.Check, int64, error)
	ListIncidents(ctx context.Context, monitorID string, offset, limit int) ([]database.Incident, int64, error)
}

// Prober executes a single probe
type Prober interface {
	Probe(ctx context.Context, m *database.Monitor) probe.Result
}

// Publisher receives engine activity for live subscribers
type Publisher interface {
	Publish(evt events.Event)
}

// Tally summarizes one scheduler tick
type Tally struct {
	Ran    int    `json:"ran"`
	Failed int    `json:"failed"`
	Error  string `json:"error,omitempty"`
}

// CheckServiceOptions configures a CheckService
type CheckServiceOptions struct {
	MaxConcurrency int
	Publisher      Publisher
	Now            func() time.Time
}

// CheckService runs probes and drives their side effects: check rows,
// incident transitions and alert dispatch.
type CheckService struct {
	repo           Repository
	prober         Prober
	incidents      *incidents.Manager
	dispatcher     *alerts.Dispatcher
	publisher      Publisher
	maxConcurrency int
	now            func() time.Time
}

// NewCheckService creates a new CheckService
func NewCheckService(repo Repository, prober Prober, manager *incidents.Manager, dispatcher *alerts.Dispatcher, opts CheckServiceOptions) *CheckService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CheckService{
		repo:           repo,
		prober:         prober,
		incidents:      manager,
		dispatcher:     dispatcher,
		publisher:      opts.Publisher,
		maxConcurrency: opts.MaxConcurrency,
		now:            opts.Now,
	}
}

// IsDue reports whether a monitor should be probed at now
func IsDue(m *database.Monitor, now time.Time) bool {
	if m.IsPaused {
		return false
	}
	if m.LastChecked == nil {
		return true
	}
	return now.Sub(*m.LastChecked) >= m.Interval()
}

// RunDueChecks probes every due monitor concurrently. A failure or panic in
// one monitor is counted and logged but never affects the others.
func (s *CheckService) RunDueChecks(ctx context.Context) Tally {
	monitors, err := s.repo.ListActiveTargets(ctx)
	if err != nil {
		log.Printf("CheckService: Failed to list monitors: %v", err)
		return Tally{Error: err.Error()}
	}

	now := s.now()
	due := make([]database.Monitor, 0, len(monitors))
	for _, m := range monitors {
		if IsDue(&m, now) {
			due = append(due, m)
		}
	}
	if len(due) == 0 {
		return Tally{}
	}

	started := time.Now()
	var ran, failed int64
	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i := range due {
		m := &due[i]
		g.Go(func() error {
			if err := s.runIsolated(ctx, m); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Printf("CheckService: Monitor %s failed: %v", m.ID, err)
				return nil
			}
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}
	_ = g.Wait()

	tally := Tally{Ran: int(ran), Failed: int(failed)}
	if tally.Failed > 0 {
		log.Printf("CheckService: %d monitor check(s) failed", tally.Failed)
	}
	log.Printf("CheckService: Checked %d due monitor(s) in %s", len(due), utils.FormatDuration(time.Since(started)))
	return tally
}

func (s *CheckService) runIsolated(ctx context.Context, m *database.Monitor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	_, err = s.runCheck(ctx, m)
	return err
}

// RunCheckForMonitor probes one monitor immediately. A missing or paused
// monitor yields (nil, nil) without side effects.
func (s *CheckService) RunCheckForMonitor(ctx context.Context, id string) (*database.Check, error) {
	m, err := s.repo.GetTarget(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.IsPaused {
		return nil, nil
	}
	return s.runCheck(ctx, m)
}

func (s *CheckService) runCheck(ctx context.Context, m *database.Monitor) (*database.Check, error) {
	res := s.prober.Probe(ctx, m)
	now := s.now()

	latency := res.LatencyMs
	check := &database.Check{
		MonitorID:  m.ID,
		OK:         res.OK,
		StatusCode: res.StatusCode,
		LatencyMs:  &latency,
		CreatedAt:  now,
	}
	if res.Error != "" {
		msg := res.Error
		check.Error = &msg
	}

	if err := s.repo.RecordCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to record check: %w", err)
	}
	if err := s.repo.UpdateLastChecked(ctx, m.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last checked: %w", err)
	}
	s.publish(events.TypeCheckRecorded, m, check)

	decision, err := s.incidents.Evaluate(ctx, m, incidents.Observation{
		OK:         res.OK,
		StatusCode: res.StatusCode,
		Error:      res.Error,
		At:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate incident state: %w", err)
	}

	switch decision.Transition {
	case incidents.TransitionOpened:
		s.publish(events.TypeIncidentOpened, m, decision.Incident)
	case incidents.TransitionReminded:
		s.publish(events.TypeIncidentReminded, m, decision.Incident)
	case incidents.TransitionResolved:
		s.publish(events.TypeIncidentResolved, m, decision.Incident)
	}

	if decision.Notification != nil {
		s.dispatcher.DispatchAsync(ctx, alerts.EndpointsFor(m), decision.Notification)
	}
	return check, nil
}

func (s *CheckService) publish(eventType string, m *database.Monitor, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.Event{
		Type:      eventType,
		MonitorID: m.ID,
		Payload:   payload,
		OwnerID:   m.UserID,
	})
}
