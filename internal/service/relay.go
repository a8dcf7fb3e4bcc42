package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/llm-relay/internal/core"
	"github.com/target/llm-relay/internal/domain/model"
	ierrors "github.com/target/llm-relay/internal/errors"
	"github.com/target/llm-relay/internal/observability/metrics"
	"github.com/target/llm-relay/internal/observability/statsd"
)

// SimulatedResult is the processor result posted by SimulateCallback.
var SimulatedResult = json.RawMessage(`{"score":0.91,"feedback":"Great work! Consider adding a section on metrics."}`)

// RelayServiceOptions groups dependencies for RelayService.
type RelayServiceOptions struct {
	Repo       core.JobRepository        // Required: job store
	Dispatcher core.Dispatcher           // Required: outbound processor client
	Relayer    core.Relayer              // Required: signed webhook sender
	Guard      core.DispatchLocker       // Optional: single-flight dispatch lease
	Reporter   core.RelayFailureReporter // Optional: receives undeliverable relays
	Metrics    statsd.Sink               // Optional: metrics sink
	Logger     *slog.Logger              // Optional: structured logger
}

// RelayService drives a job through dispatch, callback and relay.
type RelayService struct {
	repo       core.JobRepository
	dispatcher core.Dispatcher
	relayer    core.Relayer
	guard      core.DispatchLocker
	reporter   core.RelayFailureReporter
	metrics    statsd.Sink
	logger     *slog.Logger
}

// NewRelayService constructs a new RelayService.
func NewRelayService(opts RelayServiceOptions) (*RelayService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("Dispatcher is required")
	}
	if opts.Relayer == nil {
		return nil, errors.New("Relayer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayService{
		repo:       opts.Repo,
		dispatcher: opts.Dispatcher,
		relayer:    opts.Relayer,
		guard:      opts.Guard,
		reporter:   opts.Reporter,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "relay_service"),
	}, nil
}

// MustNewRelayService constructs a RelayService and panics on error.
func MustNewRelayService(opts RelayServiceOptions) *RelayService {
	svc, err := NewRelayService(opts)
	if err != nil {
		panic(err)
	}
	return svc
}

// CreateReview stores a queued job and forwards it to the processor.
//
// Invalid input yields a validation AppError. When the processor cannot be
// reached the job is marked failed, a best-effort relay is attempted and the
// *model.UpstreamDispatchError is returned.
func (s *RelayService) CreateReview(ctx context.Context, req model.CreateReviewRequest) (*model.ReviewEnqueued, error) {
	if err := req.Validate(); err != nil {
		return nil, ierrors.Validation(err.Error())
	}
	payload, err := json.Marshal(req.Payload())
	if err != nil {
		return nil, fmt.Errorf("encode review payload: %w", err)
	}

	job, err := s.createJob(ctx, req, payload)
	if err != nil {
		return nil, err
	}

	if err := s.dispatch(ctx, job); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review enqueued", "job_id", job.ID, "submission_id", job.SubmissionID)
	return &model.ReviewEnqueued{JobID: job.ID, Status: model.JobStatusQueued}, nil
}

// createJob stores the queued job. A duplicate id is returned as is and never retried.
func (s *RelayService) createJob(ctx context.Context, req model.CreateReviewRequest, payload json.RawMessage) (*model.Job, error) {
	params := model.CreateJobParams{
		ID:           model.NewJobID(),
		SubmissionID: req.SubmissionID,
		WebhookURL:   req.WebhookURL,
		Payload:      payload,
	}
	job, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateJobID) {
			s.logger.ErrorContext(ctx, "generated job id already exists", "job_id", params.ID)
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *RelayService) dispatch(ctx context.Context, job *model.Job) error {
	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, job.ID)
		switch {
		case errors.Is(err, model.ErrDispatchInFlight):
			return err
		case err != nil:
			s.logger.WarnContext(ctx, "dispatch guard unavailable, continuing without lease",
				"job_id", job.ID, "error", err)
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	start := time.Now()
	err := s.dispatcher.Dispatch(ctx, job.ID, job.Payload)
	metrics.Emit(s.metrics, metrics.Event{
		Stage:    metrics.StageDispatch,
		Result:   metrics.ResultFor(err),
		Duration: time.Since(start),
		Err:      err,
	})
	if err == nil {
		return nil
	}

	s.logger.ErrorContext(ctx, "dispatch to processor failed", "job_id", job.ID, "error", err)

	var upErr *model.UpstreamDispatchError
	if !errors.As(err, &upErr) {
		upErr = &model.UpstreamDispatchError{Err: err}
	}

	// The requester should still learn about the failure; relay errors here are only logged.
	detached := context.WithoutCancel(ctx)
	failed, uerr := s.repo.UpdateStatus(detached, job.ID, model.JobStatusFailed,
		model.ErrorResult("LLM request failed: "+err.Error()))
	if uerr != nil {
		s.logger.ErrorContext(ctx, "mark job failed", "job_id", job.ID, "error", uerr)
		return upErr
	}
	if rerr := s.relay(detached, failed); rerr != nil {
		s.logger.WarnContext(ctx, "best-effort relay after dispatch failure failed",
			"job_id", job.ID, "error", rerr)
	}
	return upErr
}

// HandleCallback records the processor outcome for id and relays it to the requester.
// A notice without the ok flag yields a validation AppError and leaves the job untouched.
// Unknown ids yield model.ErrJobNotFound. A relay failure is reported in the outcome,
// never as an error.
func (s *RelayService) HandleCallback(ctx context.Context, id string, cb model.CallbackRequest) (*model.CallbackOutcome, error) {
	if err := cb.Validate(); err != nil {
		return nil, ierrors.Validation(err.Error())
	}
	status, result := cb.Outcome()

	job, err := s.repo.UpdateStatus(ctx, id, status, result)
	metrics.Emit(s.metrics, metrics.Event{
		Stage:  metrics.StageCallback,
		Result: metrics.ResultFor(err),
		Status: string(status),
		Err:    err,
	})
	if err != nil {
		return nil, fmt.Errorf("update job status: %w", err)
	}
	s.logger.InfoContext(ctx, "callback recorded", "job_id", job.ID, "status", job.Status)

	// Retries continue even if the processor hangs up.
	if err := s.relay(context.WithoutCancel(ctx), job); err != nil {
		return &model.CallbackOutcome{Received: true, Relayed: false, Error: err.Error()}, nil
	}
	return &model.CallbackOutcome{Received: true, Relayed: true}, nil
}

// Relay re-sends the signed outcome of a terminal job. Queued jobs yield ErrInvalidTransition.
func (s *RelayService) Relay(ctx context.Context, id string) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is still %s", model.ErrInvalidTransition, job.ID, job.Status)
	}
	return s.relay(ctx, job)
}

func (s *RelayService) relay(ctx context.Context, job *model.Job) error {
	start := time.Now()
	err := s.relayer.Relay(ctx, job)

	var attempts int
	var delivery *model.RelayDeliveryError
	if errors.As(err, &delivery) {
		attempts = delivery.Attempts
	}
	metrics.Emit(s.metrics, metrics.Event{
		Stage:    metrics.StageRelay,
		Result:   metrics.ResultFor(err),
		Status:   string(job.Status),
		Attempts: attempts,
		Duration: time.Since(start),
		Err:      err,
	})
	if err == nil {
		return nil
	}

	s.logger.ErrorContext(ctx, "relay to webhook failed",
		"job_id", job.ID,
		"status", job.Status,
		"attempts", attempts,
		"error", err,
	)
	if s.reporter != nil {
		s.reporter.RelayFailed(ctx, job, err)
	}
	return err
}

// GetJob returns the stored job or model.ErrJobNotFound.
func (s *RelayService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// SimulateCallback behaves as if the processor reported SimulatedResult for id.
func (s *RelayService) SimulateCallback(ctx context.Context, id string) (*model.CallbackOutcome, error) {
	return s.HandleCallback(ctx, id, model.SucceededCallback(SimulatedResult))
}
