// Package model defines the core data types used throughout the relay.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a relay job.
type JobStatus string

const (
	// JobStatusQueued indicates the job was accepted and handed to the processor.
	JobStatusQueued JobStatus = "queued"
	// JobStatusDone indicates the processor reported success.
	JobStatusDone JobStatus = "done"
	// JobStatusFailed indicates the processor (or the dispatch) failed.
	JobStatusFailed JobStatus = "failed"
)

// jobIDPrefix plus 24 hex characters of a v4 UUID.
const (
	jobIDPrefix    = "job_"
	jobIDHexLength = 24
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusDone || s == JobStatusFailed
}

// Terminal reports whether the status is done or failed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// Job is the durable record of one unit of work relayed through the service.
type Job struct {
	ID           string          `json:"id"            db:"id"`
	SubmissionID string          `json:"submission_id" db:"submission_id"`
	WebhookURL   string          `json:"webhook_url"   db:"webhook_url"`
	Status       JobStatus       `json:"status"        db:"status"`
	Payload      json.RawMessage `json:"payload"       db:"payload"`
	Result       json.RawMessage `json:"result"        db:"result"`
	CreatedAt    time.Time       `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"    db:"updated_at"`
}

// NewJobID returns a fresh job identifier of the form job_<24 hex chars>.
func NewJobID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return jobIDPrefix + hex[:jobIDHexLength]
}

// CreateJobParams carries the fields required to persist a new job.
type CreateJobParams struct {
	ID           string
	SubmissionID string
	WebhookURL   string
	Payload      json.RawMessage
}

// Validate validates the CreateJobParams fields.
func (p CreateJobParams) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(p.SubmissionID) == "" {
		return errors.New("submission_id is required")
	}
	if strings.TrimSpace(p.WebhookURL) == "" {
		return errors.New("webhook_url is required")
	}
	if len(p.Payload) == 0 || !json.Valid(p.Payload) {
		return errors.New("payload must be valid JSON")
	}
	return nil
}

// ValidateTransition checks a status update against the job state machine.
// Jobs never return to queued, and terminal updates must carry a result.
func ValidateTransition(status JobStatus, result json.RawMessage) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	if !status.Terminal() {
		return fmt.Errorf("%w: cannot move a job to %s", ErrInvalidTransition, status)
	}
	if len(result) == 0 || string(result) == "null" {
		return fmt.Errorf("%w: %s requires a result", ErrInvalidTransition, status)
	}
	if !json.Valid(result) {
		return fmt.Errorf("%w: result must be valid JSON", ErrInvalidTransition)
	}
	return nil
}

// FileRef points the processor to one input document.
type FileRef struct {
	URL   string `json:"url"`
	Pages []int  `json:"pages,omitempty"`
}

// CreateReviewRequest is the inbound body of POST /v1/reviews.
type CreateReviewRequest struct {
	SubmissionID string          `json:"submission_id"`
	FileRefs     []FileRef       `json:"file_refs"`
	StudentID    *string         `json:"student_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	WebhookURL   string          `json:"webhook_url"`
}

// Validate validates the CreateReviewRequest fields.
func (r *CreateReviewRequest) Validate() error {
	if strings.TrimSpace(r.SubmissionID) == "" {
		return errors.New("submission_id is required")
	}
	if r.FileRefs == nil {
		return errors.New("file_refs is required")
	}
	for i, ref := range r.FileRefs {
		if err := validateHTTPURL(ref.URL); err != nil {
			return fmt.Errorf("file_refs[%d].url: %w", i, err)
		}
	}
	if err := validateHTTPURL(r.WebhookURL); err != nil {
		return fmt.Errorf("webhook_url: %w", err)
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(r.Metadata, &obj); err != nil {
			return errors.New("metadata must be a JSON object")
		}
	}
	return nil
}

// ReviewPayload is the work description stored on the job and forwarded to the processor.
type ReviewPayload struct {
	SubmissionID string          `json:"submission_id"`
	FileRefs     []FileRef       `json:"file_refs"`
	StudentID    *string         `json:"student_id"`
	Metadata     json.RawMessage `json:"metadata"`
}

// Payload builds the stored payload; missing metadata becomes an empty object.
func (r *CreateReviewRequest) Payload() ReviewPayload {
	meta := r.Metadata
	if len(meta) == 0 || string(meta) == "null" {
		meta = json.RawMessage(`{}`)
	}
	return ReviewPayload{
		SubmissionID: r.SubmissionID,
		FileRefs:     r.FileRefs,
		StudentID:    r.StudentID,
		Metadata:     meta,
	}
}

// ReviewEnqueued is the response to a successful POST /v1/reviews.
type ReviewEnqueued struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// CallbackRequest is the completion notice sent by the processor.
// OK is a pointer so that a notice without the field can be rejected.
type CallbackRequest struct {
	OK     *bool           `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// SucceededCallback builds the notice for a successful processor run.
func SucceededCallback(result json.RawMessage) CallbackRequest {
	ok := true
	return CallbackRequest{OK: &ok, Result: result}
}

// FailedCallback builds the notice for a failed processor run; an empty msg stores "unknown".
func FailedCallback(msg string) CallbackRequest {
	ok := false
	cb := CallbackRequest{OK: &ok}
	if msg != "" {
		cb.Error = &msg
	}
	return cb
}

// Validate reports a notice that omits the ok flag.
func (c CallbackRequest) Validate() error {
	if c.OK == nil {
		return errors.New("ok is required")
	}
	return nil
}

// Outcome maps the callback onto a terminal status and the result to store.
// Callers must Validate first; a missing ok flag is treated as failure.
func (c CallbackRequest) Outcome() (JobStatus, json.RawMessage) {
	if c.OK != nil && *c.OK {
		if len(c.Result) == 0 || string(c.Result) == "null" {
			return JobStatusDone, json.RawMessage(`{}`)
		}
		return JobStatusDone, c.Result
	}
	msg := "unknown"
	if c.Error != nil && *c.Error != "" {
		msg = *c.Error
	}
	return JobStatusFailed, ErrorResult(msg)
}

// ErrorResult builds the {"error": msg} result stored for failed jobs.
func ErrorResult(msg string) json.RawMessage {
	b, err := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	if err != nil {
		return json.RawMessage(`{"error":"unknown"}`)
	}
	return b
}

// CallbackOutcome reports whether a callback was stored and relayed.
type CallbackOutcome struct {
	Received bool   `json:"received"`
	Relayed  bool   `json:"relayed"`
	Error    string `json:"error,omitempty"`
}

// RelayEnvelope is the signed body delivered to the requester's webhook.
type RelayEnvelope struct {
	JobID        string          `json:"job_id"`
	SubmissionID string          `json:"submission_id"`
	OK           bool            `json:"ok"`
	Result       json.RawMessage `json:"result"`
}

// EnvelopeFor builds the relay body for a job; ok is true only for done jobs.
func EnvelopeFor(job *Job) RelayEnvelope {
	result := job.Result
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}
	return RelayEnvelope{
		JobID:        job.ID,
		SubmissionID: job.SubmissionID,
		OK:           job.Status == JobStatusDone,
		Result:       result,
	}
}

// DispatchRequest is the body posted to the processor.
type DispatchRequest struct {
	JobID       string          `json:"job_id"`
	CallbackURL string          `json:"callback_url"`
	Payload     json.RawMessage `json:"payload"`
}

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
