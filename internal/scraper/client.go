package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/b9ops/dashboard/pkg/config"
	"github.com/b9ops/dashboard/pkg/logging"
	"github.com/b9ops/dashboard/pkg/telemetry"
)

// Status is the scraper service's detailed status payload.
type Status struct {
	Running             bool      `json:"running"`
	Status              string    `json:"status"`
	SubredditsProcessed int64     `json:"subreddits_processed"`
	QueueDepth          int64     `json:"queue_depth"`
	StartedAt           time.Time `json:"started_at"`
	LastError           string    `json:"last_error"`
}

// StoppedStatus is the synthetic payload served when the scraper service is
// unreachable; the dashboard must keep rendering rather than surface the
// proxy failure.
func StoppedStatus() *Status {
	return &Status{
		Running: false,
		Status:  "stopped",
	}
}

// Client talks to the external scraper service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a scraper service client.
func New(cfg *config.ScraperConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.GetLogger().With(zap.String("component", "scraper-client")),
	}
}

// Start asks the scraper service to start a run.
func (c *Client) Start(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "scraper.start")
	defer span.End()

	return c.do(ctx, http.MethodPost, "/scraper/start", nil)
}

// Stop asks the scraper service to stop the current run.
func (c *Client) Stop(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "scraper.stop")
	defer span.End()

	return c.do(ctx, http.MethodPost, "/scraper/stop", nil)
}

// StatusDetailed fetches the detailed scraper status.
func (c *Client) StatusDetailed(ctx context.Context) (*Status, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.status_detailed")
	defer span.End()

	var status Status
	if err := c.do(ctx, http.MethodGet, "/scraper/status-detailed", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Close releases idle connections. It satisfies the pooled-client contract.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do issues one request and decodes a JSON body into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build scraper request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scraper service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("scraper service returned status %d for %s", resp.StatusCode, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode scraper response: %w", err)
		}
	}
	return nil
}
