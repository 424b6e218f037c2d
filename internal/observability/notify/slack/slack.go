package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/observability/notify"
)

const defaultUsername = "acme-analytics-etl"

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// RunURLPrefix, when set, turns the run ID into a link: <prefix>/<run id>.
	RunURLPrefix string
}

// Client delivers run failure notifications to a Slack webhook.
type Client struct {
	webhookURL   string
	channel      string
	username     string
	retryLimit   int
	runURLPrefix string
	client       *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	return &Client{
		webhookURL:   webhookURL,
		channel:      strings.TrimSpace(cfg.Channel),
		username:     notify.Fallback(strings.TrimSpace(cfg.Username), defaultUsername),
		retryLimit:   max(cfg.RetryLimit, 0),
		runURLPrefix: strings.TrimSpace(cfg.RunURLPrefix),
		client:       notify.HTTPClient(cfg.Client, cfg.Timeout),
	}, nil
}

// SendRunFailure posts a formatted message to Slack.
func (c *Client) SendRunFailure(ctx context.Context, payload notify.RunFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.Retry(ctx, c.retryLimit, func(ctx context.Context) error {
		return notify.PostJSON(ctx, c.client, c.webhookURL, "slack webhook", body)
	})
}

func (c *Client) formatMessage(payload notify.RunFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	writeHeader(&text, payload)
	appendDetails(&text, payload, c.formatRunValue(payload.RunID))
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func writeHeader(text *strings.Builder, payload notify.RunFailurePayload) {
	text.WriteString("*ETL run failed*")
	if payload.Job != "" {
		text.WriteString(" `")
		text.WriteString(escape(payload.Job))
		text.WriteByte('`')
	}
	if payload.Window != "" {
		text.WriteString(" (")
		text.WriteString(escape(payload.Window))
		text.WriteByte(')')
	}
	text.WriteByte('\n')
}

func appendDetails(text *strings.Builder, payload notify.RunFailurePayload, runValue string) {
	partial := ""
	if payload.Partial {
		partial = "yes, " + strconv.Itoa(payload.RowsLoaded) + " rows committed"
	}

	fields := []struct {
		label string
		value string
	}{
		{"Severity", notify.Fallback(payload.Severity, notify.SeverityCritical)},
		{"Run", runValue},
		{"Schema", payload.SchemaVersion},
		{"Partial load", partial},
		{"Error class", payload.ErrorClass},
		{"Error", escape(payload.Error)},
	}
	for _, field := range fields {
		appendField(text, field.label, field.value)
	}
}

func (c *Client) formatRunValue(runID string) string {
	id := escape(strings.TrimSpace(runID))
	if id == "" {
		return ""
	}
	if link := c.buildRunLink(strings.TrimSpace(runID)); link != "" {
		return fmt.Sprintf("<%s|%s>", link, id)
	}
	return id
}

func (c *Client) buildRunLink(runID string) string {
	if c.runURLPrefix == "" {
		return ""
	}
	u, err := url.Parse(c.runURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	link, err := url.JoinPath(u.String(), runID)
	if err != nil {
		return ""
	}
	return link
}

func escape(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(escape(metadata[k]))
		text.WriteByte('\n')
	}
}
