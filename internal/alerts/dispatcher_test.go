package alerts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/alerts/transports"
	"github.com/DhruvGupta005/uptime/internal/database"
	"github.com/DhruvGupta005/uptime/internal/testhelpers"
)

const testRetryDelay = 40 * time.Millisecond

type recordingAudit struct {
	mu   sync.Mutex
	rows []database.Alert
	err  error
}

func (a *recordingAudit) RecordAlert(ctx context.Context, alert *database.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, *alert)
	return nil
}

func (a *recordingAudit) Rows() []database.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]database.Alert(nil), a.rows...)
}

type recordingListener struct {
	mu   sync.Mutex
	seen []database.Alert
}

func (l *recordingListener) AlertRecorded(n alerts.Notification, alert database.Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, alert)
}

func newDispatcher(audit alerts.AuditLog, opts alerts.Options) *alerts.Dispatcher {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = testRetryDelay
	}
	return alerts.NewDispatcher(audit, opts, transports.NewWebhook(nil, "uptime-monitor/test"))
}

func downNotification() alerts.Down {
	return alerts.Down{
		Meta: alerts.Meta{
			MonitorID:   "mon-1",
			MonitorName: "API",
			MonitorURL:  "https://api.example.com",
			IncidentID:  "inc-1",
			Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Reason: "HTTP 500",
	}
}

func TestDispatch_ExhaustsRetriesAndRecordsOneFailedRow(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t, http.StatusInternalServerError)
	audit := &recordingAudit{}
	d := newDispatcher(audit, alerts.Options{})

	out := d.Dispatch(context.Background(), alerts.Endpoint{Kind: alerts.KindWebhook, URL: receiver.URL()}, downNotification())

	if out.Delivered {
		t.Error("expected delivery to fail")
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	if out.LastError == "" {
		t.Error("expected last error to be set")
	}
	if receiver.Count() != 3 {
		t.Errorf("expected 3 requests, got %d", receiver.Count())
	}

	rows := audit.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one audit row, got %d", len(rows))
	}
	row := rows[0]
	if row.Status != database.AlertStatusFailed {
		t.Errorf("expected failed row, got %s", row.Status)
	}
	if row.Error == nil || *row.Error != out.LastError {
		t.Errorf("expected row error %q, got %v", out.LastError, row.Error)
	}
	if row.IncidentID == nil || *row.IncidentID != "inc-1" {
		t.Errorf("expected incident id on row, got %v", row.IncidentID)
	}
	if row.Type != database.AlertTypeDown || row.Channel != "webhook" {
		t.Errorf("unexpected row type/channel: %s/%s", row.Type, row.Channel)
	}

	// waits grow linearly: ~1x then ~2x the retry delay
	reqs := receiver.Requests()
	gap1 := reqs[1].At.Sub(reqs[0].At)
	gap2 := reqs[2].At.Sub(reqs[1].At)
	if gap1 < testRetryDelay {
		t.Errorf("expected first wait >= %v, got %v", testRetryDelay, gap1)
	}
	if gap2 < 2*testRetryDelay {
		t.Errorf("expected second wait >= %v, got %v", 2*testRetryDelay, gap2)
	}
}

func TestDispatch_SucceedsAfterTransientFailures(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t, 500, 502, 200)
	audit := &recordingAudit{}
	d := newDispatcher(audit, alerts.Options{})

	out := d.Dispatch(context.Background(), alerts.Endpoint{Kind: alerts.KindWebhook, URL: receiver.URL()}, downNotification())

	if !out.Delivered {
		t.Fatalf("expected delivery, got error %q", out.LastError)
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
	rows := audit.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one audit row, got %d", len(rows))
	}
	if rows[0].Status != database.AlertStatusSent {
		t.Errorf("expected sent row, got %s", rows[0].Status)
	}
	if rows[0].Error != nil {
		t.Errorf("expected no error on sent row, got %q", *rows[0].Error)
	}
}

func TestDispatch_PostsWebhookPayload(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t)
	d := newDispatcher(&recordingAudit{}, alerts.Options{})

	n := alerts.Periodic{Meta: downNotification().Meta, DowntimeMinutes: 20, Reason: "HTTP 500"}
	if out := d.Dispatch(context.Background(), alerts.Endpoint{Kind: alerts.KindWebhook, URL: receiver.URL()}, n); !out.Delivered {
		t.Fatalf("expected delivery, got %q", out.LastError)
	}

	body := string(receiver.Requests()[0].Body)
	testhelpers.AssertJSONKeyValue(t, body, "type", "periodic", "payload type")
	testhelpers.AssertJSONKeyValue(t, body, "duration", "20 minutes", "payload duration")
	testhelpers.AssertJSONKeyValue(t, body, "reason", "HTTP 500", "payload reason")

	var payload alerts.WebhookPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Monitor.Status != "down" || payload.Monitor.Timestamp != "2026-01-01T00:00:00Z" {
		t.Errorf("unexpected monitor section: %+v", payload.Monitor)
	}
	if payload.Text != alerts.Compose(n) {
		t.Errorf("expected text to match composed message, got %q", payload.Text)
	}
}

func TestDispatch_RecordOnly(t *testing.T) {
	audit := &recordingAudit{}
	d := newDispatcher(audit, alerts.Options{})

	outcomes := d.DispatchAll(context.Background(), nil, downNotification())

	if len(outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(outcomes))
	}
	if !outcomes[0].Delivered || outcomes[0].Attempts != 0 {
		t.Errorf("expected record-only success without attempts, got %+v", outcomes[0])
	}
	rows := audit.Rows()
	if len(rows) != 1 || rows[0].Status != database.AlertStatusSent || rows[0].Channel != "" {
		t.Errorf("expected one sent record-only row, got %+v", rows)
	}
}

func TestDispatch_AuditFailureDoesNotChangeDelivery(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t)
	audit := &recordingAudit{err: errors.New("disk full")}
	d := newDispatcher(audit, alerts.Options{})

	out := d.Dispatch(context.Background(), alerts.Endpoint{Kind: alerts.KindWebhook, URL: receiver.URL()}, downNotification())

	if !out.Delivered {
		t.Error("expected delivery to be reported despite audit failure")
	}
	if out.AuditErr == nil {
		t.Error("expected audit error to be reported separately")
	}
}

func TestDispatch_UnknownTransport(t *testing.T) {
	audit := &recordingAudit{}
	d := newDispatcher(audit, alerts.Options{})

	out := d.Dispatch(context.Background(), alerts.Endpoint{Kind: alerts.KindSlack, URL: "http://127.0.0.1:1"}, downNotification())

	if out.Delivered || out.Attempts != 0 {
		t.Errorf("expected undeliverable outcome, got %+v", out)
	}
	if rows := audit.Rows(); len(rows) != 1 || rows[0].Status != database.AlertStatusFailed {
		t.Errorf("expected one failed row, got %+v", rows)
	}
}

func TestDispatch_CancelledDuringBackoff(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t, http.StatusServiceUnavailable)
	audit := &recordingAudit{}
	d := newDispatcher(audit, alerts.Options{RetryDelay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out alerts.Outcome
	testhelpers.MustCompleteWithin(t, 2*time.Second, func() {
		out = d.Dispatch(ctx, alerts.Endpoint{Kind: alerts.KindWebhook, URL: receiver.URL()}, downNotification())
	})

	if out.Delivered || out.Attempts != 1 {
		t.Errorf("expected a single failed attempt, got %+v", out)
	}
	if rows := audit.Rows(); len(rows) != 1 || rows[0].Status != database.AlertStatusFailed {
		t.Errorf("expected the failed row to be written after cancellation, got %+v", rows)
	}
}

func TestDispatchAsync_WaitAndListener(t *testing.T) {
	receiver := testhelpers.NewWebhookReceiver(t)
	audit := &recordingAudit{}
	listener := &recordingListener{}
	d := newDispatcher(audit, alerts.Options{Listener: listener})

	endpoints := []alerts.Endpoint{{Kind: alerts.KindWebhook, URL: receiver.URL()}}
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 4; i++ {
		d.DispatchAsync(ctx, endpoints, downNotification())
	}
	cancel()
	d.Wait()

	if n := len(audit.Rows()); n != 4 {
		t.Errorf("expected 4 audit rows, got %d", n)
	}
	for _, row := range audit.Rows() {
		if row.Status != database.AlertStatusSent {
			t.Errorf("expected detached dispatch to survive caller cancellation, got %s", row.Status)
		}
	}
	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.seen) != 4 {
		t.Errorf("expected listener to see 4 rows, got %d", len(listener.seen))
	}
}
