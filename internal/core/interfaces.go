package core

import (
	"context"
	"encoding/json"

	"github.com/target/llm-relay/internal/domain/model"
)

// This file contains the port definitions between the relay service and its adapters.
// Service implementations depend on these interfaces, not concrete implementations.

// JobRepository is the single source of truth for job state.
type JobRepository interface {
	// Create inserts a queued job with a null result.
	// A taken id yields model.ErrDuplicateJobID.
	Create(ctx context.Context, params model.CreateJobParams) (*model.Job, error)
	// UpdateStatus atomically sets status and result, refreshes updated_at and
	// returns the full record. Unknown ids yield model.ErrJobNotFound.
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, result json.RawMessage) (*model.Job, error)
	// GetByID returns the record or model.ErrJobNotFound.
	GetByID(ctx context.Context, id string) (*model.Job, error)
}

// Dispatcher hands a queued job to the external processor.
type Dispatcher interface {
	// Dispatch returns *model.UpstreamDispatchError on any transport or non-2xx failure.
	Dispatch(ctx context.Context, jobID string, payload json.RawMessage) error
}

// Relayer delivers a signed job outcome to the job's webhook.
type Relayer interface {
	// Relay returns *model.RelayDeliveryError once retries are exhausted.
	Relay(ctx context.Context, job *model.Job) error
}

// RelayFailureReporter receives relays that could not be delivered so they can be reconciled.
type RelayFailureReporter interface {
	RelayFailed(ctx context.Context, job *model.Job, err error)
}

// DispatchLocker grants single-flight dispatch leases per job id.
type DispatchLocker interface {
	// Acquire returns model.ErrDispatchInFlight while another caller holds the lease.
	Acquire(ctx context.Context, jobID string) (release func(context.Context), err error)
}
