// Package webhook posts finished reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/logforge/pkg/config"
	"github.com/ccollicutt/logforge/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

// EventReport is the event name of a finished analysis.
const EventReport = "logforge.report"

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Event  string           `json:"event"`
	Run    output.RunInfo   `json:"run"`
	Report *output.Document `json:"report"`
}

// Client sends reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new webhook client. A nil logger disables logging.
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// ShouldFire reports whether a webhook with the given trigger fires for doc.
func ShouldFire(trigger config.WebhookTrigger, doc *output.Document) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerOnInvalid, "":
		return doc.Summary.InvalidLines > 0
	default:
		return false
	}
}

// Send posts a report to a webhook endpoint.
func (c *Client) Send(ctx context.Context, doc *output.Document, info output.RunInfo, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}

	payload, err := json.Marshal(Payload{Event: EventReport, Run: info, Report: doc})
	if err != nil {
		resp.Error = fmt.Errorf("failed to marshal report: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		resp.Error = fmt.Errorf("failed to create request: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "logforge-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		resp.Error = fmt.Errorf("request failed: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1024*1024)) // Limit to 1MB
	if err != nil {
		resp.Error = fmt.Errorf("failed to read response: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}

// Dispatch sends the report to every configured webhook whose trigger fires.
// Failures are logged and counted; they never abort the run. It returns the
// number of webhooks that were delivered successfully and the number that failed.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, doc *output.Document, info output.RunInfo) (sent, failed int) {
	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if !ShouldFire(wh.Trigger, doc) {
			c.logger.Debug("webhook skipped", zap.String("webhook", name), zap.String("trigger", string(wh.Trigger)))
			continue
		}

		resp := c.Send(ctx, doc, info, SendOptions{URL: wh.URL, Token: wh.Token, Timeout: wh.Timeout})
		if !resp.Success() {
			failed++
			c.logger.Warn("webhook failed",
				zap.String("webhook", name),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration),
				zap.Error(resp.Error),
			)
			continue
		}

		sent++
		c.logger.Info("webhook sent",
			zap.String("webhook", name),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", resp.Duration),
		)
	}
	return sent, failed
}
