// Package transports implements alert delivery channels for the dispatcher.
package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/DhruvGupta005/uptime/internal/alerts"
)

// Webhook posts the generic JSON alert payload to an arbitrary URL
type Webhook struct {
	client    *http.Client
	userAgent string
}

// NewWebhook creates a webhook transport. A nil client uses http.DefaultClient.
func NewWebhook(client *http.Client, userAgent string) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{client: client, userAgent: userAgent}
}

// Kind returns the webhook endpoint kind
func (w *Webhook) Kind() alerts.EndpointKind {
	return alerts.KindWebhook
}

// Send performs one POST. Any non-2xx status is an error.
func (w *Webhook) Send(ctx context.Context, url string, n alerts.Notification, message string) error {
	body, err := json.Marshal(alerts.NewWebhookPayload(n, message))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
