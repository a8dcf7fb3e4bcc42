package data

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/target/llm-relay/internal/domain/model"
)

// MemoryJobRepo keeps jobs in process memory. It is meant for development and tests;
// state is lost on restart.
type MemoryJobRepo struct {
	mu           sync.RWMutex
	jobs         map[string]*model.Job
	timeProvider TimeProvider
}

// NewMemoryJobRepo creates an empty in-memory job store.
func NewMemoryJobRepo(tp TimeProvider) *MemoryJobRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemoryJobRepo{jobs: make(map[string]*model.Job), timeProvider: tp}
}

// Create inserts a queued job with a null result.
func (r *MemoryJobRepo) Create(_ context.Context, params model.CreateJobParams) (*model.Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[params.ID]; exists {
		return nil, model.ErrDuplicateJobID
	}
	job := &model.Job{
		ID:           params.ID,
		SubmissionID: params.SubmissionID,
		WebhookURL:   params.WebhookURL,
		Status:       model.JobStatusQueued,
		Payload:      cloneJSON(params.Payload),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.jobs[job.ID] = job
	return copyJob(job), nil
}

// UpdateStatus swaps status and result under the write lock.
func (r *MemoryJobRepo) UpdateStatus(
	_ context.Context,
	id string,
	status model.JobStatus,
	result json.RawMessage,
) (*model.Job, error) {
	if err := model.ValidateTransition(status, result); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	job.Status = status
	job.Result = cloneNullableJSON(result)
	job.UpdatedAt = r.timeProvider.Now().UTC()
	return copyJob(job), nil
}

// GetByID returns a copy of the job or model.ErrJobNotFound.
func (r *MemoryJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return copyJob(job), nil
}

func copyJob(j *model.Job) *model.Job {
	c := *j
	c.Payload = cloneNullableJSON(j.Payload)
	c.Result = cloneNullableJSON(j.Result)
	return &c
}
