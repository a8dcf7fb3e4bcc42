// Package failurenotifier fans relay failure notices out to the configured sinks.
package failurenotifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/llm-relay/internal/core"
	"github.com/target/llm-relay/internal/domain/model"
	obserrors "github.com/target/llm-relay/internal/observability/errors"
	"github.com/target/llm-relay/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service dispatches relay failure notices to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
	now    func() time.Time
}

var _ core.RelayFailureReporter = (*Service)(nil)

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
		now:    now,
	}
}

// RelayFailed builds the notice for job and delivers it to every sink.
func (s *Service) RelayFailed(ctx context.Context, job *model.Job, relayErr error) {
	if job == nil {
		return
	}
	payload := notify.RelayFailurePayload{
		JobID:        job.ID,
		SubmissionID: job.SubmissionID,
		WebhookURL:   job.WebhookURL,
		Status:       string(job.Status),
		ErrorClass:   obserrors.Classify(relayErr),
		Severity:     notify.SeverityCritical,
		OccurredAt:   s.now().UTC(),
	}
	if relayErr != nil {
		payload.Error = relayErr.Error()
	}
	var delivery *model.RelayDeliveryError
	if errors.As(relayErr, &delivery) {
		payload.Attempts = delivery.Attempts
	}
	s.Notify(ctx, payload)
}

// Notify fans the payload out to all sinks and waits for them.
func (s *Service) Notify(ctx context.Context, payload notify.RelayFailurePayload) {
	if len(s.sinks) == 0 {
		s.logger.WarnContext(ctx, "relay failure not forwarded, no sinks configured",
			"job_id", payload.JobID,
			"error", payload.Error,
		)
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendRelayFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"job_id", payload.JobID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}
