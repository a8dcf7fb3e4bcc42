// Package processor forwards accepted jobs to the external review processor (the LLM host).
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/llm-relay/internal/domain/model"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of a failed upstream response is kept.
const maxErrorBody = 4 << 10

// Config controls the processor client.
type Config struct {
	// BaseURL is the processor root; jobs are posted to BaseURL + "/v1/reviews".
	BaseURL string
	// APIKey, when set, is sent as "Authorization: Bearer <key>".
	APIKey string
	// CallbackURL builds the completion URL the processor must call for a job.
	CallbackURL func(jobID string) string
	// Timeout bounds each dispatch. Defaults to 60s.
	Timeout time.Duration
	// Client overrides the HTTP client (tests). Its transport is wrapped for bearer auth.
	Client *http.Client
	Logger *slog.Logger
}

// Client posts jobs to the processor. It never retries.
type Client struct {
	endpoint    string
	callbackURL func(string) string
	client      *http.Client
	logger      *slog.Logger
}

// NewClient builds a processor client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("processor base url is required")
	}
	if cfg.CallbackURL == nil {
		return nil, errors.New("callback url builder is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.Client != nil {
		clone := *cfg.Client
		if clone.Timeout <= 0 {
			clone.Timeout = timeout
		}
		hc = &clone
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key, TokenType: "Bearer"}),
			Base:   base,
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:    base + "/v1/reviews",
		callbackURL: cfg.CallbackURL,
		client:      hc,
		logger:      logger.With("component", "processor_client"),
	}, nil
}

// Dispatch posts {job_id, callback_url, payload} to the processor.
// Any transport failure, timeout or non-2xx status yields *model.UpstreamDispatchError.
func (c *Client) Dispatch(ctx context.Context, jobID string, payload json.RawMessage) error {
	body, err := json.Marshal(model.DispatchRequest{
		JobID:       jobID,
		CallbackURL: c.callbackURL(jobID),
		Payload:     payload,
	})
	if err != nil {
		return &model.UpstreamDispatchError{Err: fmt.Errorf("encode dispatch body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &model.UpstreamDispatchError{Err: fmt.Errorf("create dispatch request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &model.UpstreamDispatchError{Err: fmt.Errorf("dispatch request failed: %w", err)}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close dispatch response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &model.UpstreamDispatchError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.DebugContext(ctx, "job dispatched",
		"job_id", jobID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
