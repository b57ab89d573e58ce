package transports

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/slack-go/slack"

	"github.com/DhruvGupta005/uptime/internal/alerts"
	"github.com/DhruvGupta005/uptime/internal/utils"
)

// Slack delivers notifications to Slack incoming webhooks as Block Kit messages
type Slack struct {
	client *http.Client
}

// NewSlack creates a Slack transport. A nil client uses http.DefaultClient.
func NewSlack(client *http.Client) *Slack {
	if client == nil {
		client = http.DefaultClient
	}
	return &Slack{client: client}
}

// NewSlackHTTPClient returns a client routed through proxyURL, or a plain
// client when proxyURL is empty.
func NewSlackHTTPClient(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{}, nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Slack proxy URL: %w", err)
	}
	log.Printf("Slack: Using proxy: %s", parsed.Redacted())
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(parsed),
		},
	}, nil
}

// Kind returns the Slack endpoint kind
func (s *Slack) Kind() alerts.EndpointKind {
	return alerts.KindSlack
}

// Send posts one message to the incoming webhook
func (s *Slack) Send(ctx context.Context, webhookURL string, n alerts.Notification, message string) error {
	msg := BuildSlackMessage(n)
	if err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("slack webhook failed: %w", err)
	}
	return nil
}

// BuildSlackMessage renders a notification as a Slack webhook message
func BuildSlackMessage(n alerts.Notification) *slack.WebhookMessage {
	meta := n.Info()
	when := meta.Timestamp.UTC().Format(alerts.TimeLayout)

	var title, summary string
	switch v := n.(type) {
	case alerts.Down:
		title = "🚨 Website Down Alert"
		summary = fmt.Sprintf("⚠️ Your website %s is down at %s.", meta.MonitorName, when)
	case alerts.Periodic:
		title = fmt.Sprintf("🚨 Website Still Down (%s)", utils.FormatDowntime(v.DowntimeMinutes))
		summary = fmt.Sprintf("Your website %s is still down. It has been down for %s.", meta.MonitorName, utils.FormatDowntime(v.DowntimeMinutes))
	case alerts.Recovery:
		title = "✅ Website Recovered"
		summary = fmt.Sprintf("✅ Your website %s is back online at %s.", meta.MonitorName, when)
	default:
		panic(fmt.Sprintf("transports: unknown notification %T", n))
	}

	status := "❌ DOWN"
	if alerts.Status(n) == "up" {
		status = "✅ UP"
	}
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Monitor:*\n"+meta.MonitorName, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*URL:*\n<%s|%s>", meta.MonitorURL, meta.MonitorURL), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Status:*\n"+status, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Time:*\n"+when, false, false),
	}
	if d := alerts.Downtime(n); d > 0 {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Duration:*\n"+utils.FormatDowntime(d), false, false))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+summary+"*", false, false), nil, nil),
		slack.NewSectionBlock(nil, fields, nil),
	}
	if reason := alerts.Reason(n); reason != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "*Reason:*\n```"+utils.TruncateText(reason, 500)+"```", false, false),
			nil, nil,
		))
	}
	if alerts.Status(n) == "down" {
		if origin := originOf(meta.MonitorURL); origin != "" {
			blocks = append(blocks, slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType, "Check your monitor at "+origin, false, false),
			))
		}
	}

	return &slack.WebhookMessage{
		Text:   summary,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
