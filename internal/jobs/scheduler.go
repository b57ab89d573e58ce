// Package jobs runs the engine's periodic work.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/DhruvGupta005/uptime/internal/services"
)

// DefaultSpec ticks once a minute
const DefaultSpec = "* * * * *"

// Runner executes one scheduler tick
type Runner interface {
	RunDueChecks(ctx context.Context) services.Tally
}

// Options configures a Scheduler
type Options struct {
	Spec       string
	Location   *time.Location
	StartDelay time.Duration
}

// Status is a snapshot of the scheduler state
type Status struct {
	Running   bool           `json:"running"`
	Spec      string         `json:"spec"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
	LastTally services.Tally `json:"last_tally"`
}

// Scheduler triggers due checks on a cron schedule. It is safe to Start and
// Stop repeatedly; only one tick runs at a time.
type Scheduler struct {
	runner     Runner
	spec       string
	schedule   cron.Schedule
	location   *time.Location
	startDelay time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	delay   *time.Timer
	running bool

	tickMu sync.Mutex

	statusMu  sync.Mutex
	lastRunAt *time.Time
	lastTally services.Tally
}

// NewScheduler validates the cron spec and creates a stopped scheduler
func NewScheduler(runner Runner, opts Options) (*Scheduler, error) {
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	schedule, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", opts.Spec, err)
	}

	return &Scheduler{
		runner:     runner,
		spec:       opts.Spec,
		schedule:   schedule,
		location:   opts.Location,
		startDelay: opts.StartDelay,
	}, nil
}

// Start begins ticking. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))

	s.cron = c
	s.cancel = cancel
	s.running = true

	if s.startDelay > 0 {
		s.delay = time.AfterFunc(s.startDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.cron == c {
				c.Start()
			}
		})
		log.Printf("Scheduler: Started (%s), first tick after %s", s.spec, s.startDelay)
		return
	}
	c.Start()
	log.Printf("Scheduler: Started (%s)", s.spec)
}

// Stop halts ticking and waits for a tick in progress to return. Calling Stop
// on a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.delay != nil {
		s.delay.Stop()
		s.delay = nil
	}
	s.cancel()
	<-s.cron.Stop().Done()

	s.cron = nil
	s.cancel = nil
	s.running = false
	log.Println("Scheduler: Stopped")
}

// Running reports whether the scheduler is started
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce runs a single tick synchronously, waiting for any tick in progress
func (s *Scheduler) RunOnce(ctx context.Context) services.Tally {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	tally := s.runner.RunDueChecks(ctx)

	now := time.Now()
	s.statusMu.Lock()
	s.lastRunAt = &now
	s.lastTally = tally
	s.statusMu.Unlock()

	if tally.Error != "" {
		log.Printf("Scheduler: Tick failed: %s", tally.Error)
	} else if tally.Ran > 0 || tally.Failed > 0 {
		log.Printf("Scheduler: Tick ran %d check(s), %d failed", tally.Ran, tally.Failed)
	}
	return tally
}

// Status returns a snapshot of the scheduler state
func (s *Scheduler) Status() Status {
	st := Status{Running: s.Running(), Spec: s.spec}
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.lastRunAt != nil {
		at := *s.lastRunAt
		st.LastRunAt = &at
	}
	st.LastTally = s.lastTally
	return st
}
