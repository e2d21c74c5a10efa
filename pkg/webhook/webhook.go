// Package webhook posts check reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/logwindow/pkg/config"
	"github.com/ccollicutt/logwindow/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = config.DefaultWebhookTimeout

// Client sends check reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
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

// maxResponseBody caps how much of an endpoint's reply is kept.
const maxResponseBody = 1 << 20

// Headers carrying the check outcome, so receivers can route a delivery
// without decoding the body.
const (
	HeaderStatus  = "X-Logwindow-Status"
	HeaderMatches = "X-Logwindow-Matches"
	HeaderLogfile = "X-Logwindow-Logfile"
)

// Send posts a check report to a webhook endpoint. The report is the body,
// its status, match count and logfile are repeated in headers.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := c.send(ctx, report, opts)
	resp.Duration = time.Since(start)
	return resp
}

func (c *Client) send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := newRequest(ctx, report, opts)
	if err != nil {
		return &Response{Error: err}
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return &Response{Error: fmt.Errorf("request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	resp := &Response{StatusCode: httpResp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		resp.Error = fmt.Errorf("failed to read response: %w", err)
		return resp
	}
	resp.Body = string(body)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp
}

func newRequest(ctx context.Context, report *output.Report, opts SendOptions) (*http.Request, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "logwindow-webhook")
	req.Header.Set(HeaderStatus, report.Status.String())
	req.Header.Set(HeaderMatches, strconv.Itoa(report.Summary.TotalMatches))
	if report.Check.Logfile != "" {
		req.Header.Set(HeaderLogfile, report.Check.Logfile)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	return req, nil
}

// ShouldFire determines if a webhook with trigger fires for a report.
func ShouldFire(trigger config.WebhookTrigger, alerting bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return alerting
	}
}

// Dispatch sends report to every webhook whose trigger matches and returns
// how many deliveries succeeded. Failures are logged and never returned:
// a broken endpoint must not change the check result.
func (c *Client) Dispatch(ctx context.Context, hooks []config.WebhookConfig, report *output.Report, log zerolog.Logger) int {
	sent := 0
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, report.Alerting()) {
			continue
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout.Std(),
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			sent++
			log.Info().Str("webhook", name).Int("status", resp.StatusCode).Dur("duration", resp.Duration).Msg("webhook sent")
		} else {
			log.Warn().Str("webhook", name).Err(resp.Error).Msg("webhook failed")
		}
	}
	return sent
}
