package alerts

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/DhruvGupta005/uptime/internal/database"
)

const (
	DefaultAttempts       = 3
	DefaultRetryDelay     = time.Second
	DefaultAttemptTimeout = 10 * time.Second
)

// AuditLog persists alert audit rows
type AuditLog interface {
	RecordAlert(ctx context.Context, alert *database.Alert) error
}

// Listener is told about every audit row the dispatcher writes
type Listener interface {
	AlertRecorded(n Notification, alert database.Alert)
}

// Outcome describes one dispatch. Delivered reflects only the endpoint's
// answer; a failed audit write is reported separately in AuditErr.
type Outcome struct {
	Endpoint  Endpoint
	Delivered bool
	Attempts  int
	LastError string
	AuditErr  error
}

// Options configures a Dispatcher
type Options struct {
	Attempts       int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
	Listener       Listener
}

// Dispatcher delivers notifications with bounded retries and writes exactly
// one audit row per endpoint dispatch.
type Dispatcher struct {
	audit          AuditLog
	transports     map[EndpointKind]Transport
	attempts       int
	retryDelay     time.Duration
	attemptTimeout time.Duration
	listener       Listener

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given transports
func NewDispatcher(audit AuditLog, opts Options, transports ...Transport) *Dispatcher {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}

	d := &Dispatcher{
		audit:          audit,
		transports:     make(map[EndpointKind]Transport, len(transports)),
		attempts:       opts.Attempts,
		retryDelay:     opts.RetryDelay,
		attemptTimeout: opts.AttemptTimeout,
		listener:       opts.Listener,
	}
	for _, t := range transports {
		d.transports[t.Kind()] = t
	}
	return d
}

// Dispatch delivers n to a single endpoint. After failed attempt k it waits
// k times the retry delay before trying again.
func (d *Dispatcher) Dispatch(ctx context.Context, ep Endpoint, n Notification) Outcome {
	message := Compose(n)
	out := Outcome{Endpoint: ep}

	if ep.Kind == KindRecordOnly {
		out.Delivered = true
	} else {
		d.deliver(ctx, ep, n, message, &out)
	}

	meta := n.Info()
	row := database.Alert{
		MonitorID: meta.MonitorID,
		Type:      n.Type(),
		Status:    database.AlertStatusSent,
		Channel:   string(ep.Kind),
		Message:   message,
		SentAt:    meta.Timestamp,
	}
	if meta.IncidentID != "" {
		incidentID := meta.IncidentID
		row.IncidentID = &incidentID
	}
	if !out.Delivered {
		row.Status = database.AlertStatusFailed
		lastErr := out.LastError
		row.Error = &lastErr
	}

	// Audit even when the caller's context is already done
	if err := d.audit.RecordAlert(context.WithoutCancel(ctx), &row); err != nil {
		out.AuditErr = err
		log.Printf("Dispatcher: Failed to record %s alert for monitor %s: %v", row.Type, row.MonitorID, err)
	} else if d.listener != nil {
		d.listener.AlertRecorded(n, row)
	}

	if out.Delivered {
		if ep.Kind != KindRecordOnly {
			log.Printf("Dispatcher: Delivered %s alert for monitor %s via %s (attempts: %d)", n.Type(), meta.MonitorID, ep.Kind, out.Attempts)
		}
	} else {
		log.Printf("Dispatcher: Failed to deliver %s alert for monitor %s via %s after %d attempts: %s", n.Type(), meta.MonitorID, ep.Kind, out.Attempts, out.LastError)
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, ep Endpoint, n Notification, message string, out *Outcome) {
	transport, ok := d.transports[ep.Kind]
	if !ok {
		out.LastError = fmt.Sprintf("no transport registered for %q endpoints", ep.Kind)
		return
	}

	for attempt := 1; attempt <= d.attempts; attempt++ {
		out.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		err := transport.Send(attemptCtx, ep.URL, n, message)
		cancel()
		if err == nil {
			out.Delivered = true
			out.LastError = ""
			return
		}
		out.LastError = err.Error()

		if attempt == d.attempts {
			return
		}
		if err := sleepContext(ctx, time.Duration(attempt)*d.retryDelay); err != nil {
			out.LastError = fmt.Sprintf("%s (retry aborted: %v)", out.LastError, err)
			return
		}
	}
}

// DispatchAll delivers n to every endpoint in order. With no endpoints the
// notification is recorded without delivery.
func (d *Dispatcher) DispatchAll(ctx context.Context, endpoints []Endpoint, n Notification) []Outcome {
	if len(endpoints) == 0 {
		endpoints = []Endpoint{RecordOnly}
	}
	outcomes := make([]Outcome, 0, len(endpoints))
	for _, ep := range endpoints {
		outcomes = append(outcomes, d.Dispatch(ctx, ep, n))
	}
	return outcomes
}

// DispatchAsync runs DispatchAll in the background. The dispatch is detached
// from ctx cancellation so a finished tick does not abort pending retries.
func (d *Dispatcher) DispatchAsync(ctx context.Context, endpoints []Endpoint, n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Dispatcher: panic dispatching %s alert for monitor %s: %v", n.Type(), n.Info().MonitorID, r)
			}
		}()
		d.DispatchAll(context.WithoutCancel(ctx), endpoints, n)
	}()
}

// Wait blocks until every asynchronous dispatch has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
