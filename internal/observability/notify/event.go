// Package notify defines relay failure notices and the sinks that consume them.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// RelayFailurePayload is the reconciliation record emitted when a job outcome
// could not be delivered to the requester's webhook.
type RelayFailurePayload struct {
	JobID        string            `json:"job_id"`
	SubmissionID string            `json:"submission_id"`
	WebhookURL   string            `json:"webhook_url"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	Error        string            `json:"error"`
	ErrorClass   string            `json:"error_class,omitempty"`
	Severity     string            `json:"severity"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Sink describes a destination capable of consuming relay failure notices.
type Sink interface {
	SendRelayFailure(ctx context.Context, payload RelayFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload RelayFailurePayload) error

// SendRelayFailure implements the Sink interface.
func (f SinkFunc) SendRelayFailure(ctx context.Context, payload RelayFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
