// Package webhook delivers signed job outcomes to requester webhooks.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/domain/relay"
)

const maxErrorBody = 1 << 10

// SenderOptions bundles dependencies for NewSender.
type SenderOptions struct {
	// Secret signs every body with HMAC-SHA256.
	Secret string
	// Policy schedules retries; required.
	Policy *relay.BackoffPolicy
	// Timeout bounds each attempt. Defaults to 60s.
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// Sender posts the relay envelope to a job's webhook with retry.
type Sender struct {
	secret string
	policy *relay.BackoffPolicy
	client *http.Client
	logger *slog.Logger
}

// NewSender creates a Sender.
func NewSender(opts SenderOptions) (*Sender, error) {
	if opts.Policy == nil {
		return nil, errors.New("backoff policy is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		secret: opts.Secret,
		policy: opts.Policy,
		client: client,
		logger: logger.With("component", "webhook_sender"),
	}, nil
}

// StatusError is returned for a non-2xx webhook response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the webhook response status.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Relay sends the signed envelope for job. The body is serialized and signed
// once so every attempt carries identical bytes.
func (s *Sender) Relay(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	if err := validateWebhookURL(job.WebhookURL); err != nil {
		return &model.RelayDeliveryError{Attempts: 0, Err: err}
	}

	body, err := json.Marshal(model.EnvelopeFor(job))
	if err != nil {
		return &model.RelayDeliveryError{Attempts: 0, Err: fmt.Errorf("encode relay body: %w", err)}
	}
	signature := relay.Sign(s.secret, body)

	attempts, err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		aerr := s.post(ctx, job.WebhookURL, body, signature)
		if aerr != nil && !relay.IsPermanent(aerr) {
			s.logger.WarnContext(ctx, "relay attempt failed",
				"job_id", job.ID,
				"attempt", attempt,
				"max_attempts", s.policy.MaxAttempts(),
				"error", aerr,
			)
		}
		return aerr
	})
	if err != nil {
		return &model.RelayDeliveryError{Attempts: attempts, Err: err}
	}

	s.logger.InfoContext(ctx, "relay delivered", "job_id", job.ID, "attempts", attempts)
	return nil
}

func (s *Sender) post(ctx context.Context, target string, body []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return relay.Permanent(fmt.Errorf("create relay request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(relay.SignatureHeader, signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.DebugContext(ctx, "close relay response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func validateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid webhook url %q", raw)
	}
	return nil
}
