// Package testutil provides testing utilities and helpers for the relay.
package testutil

import (
	"encoding/json"

	"github.com/target/llm-relay/internal/domain/model"
)

// JobParamsBuilder provides a fluent interface for building CreateJobParams for testing.
type JobParamsBuilder struct {
	params model.CreateJobParams
}

// NewJobParams creates a new JobParamsBuilder with sensible defaults and a fresh id.
func NewJobParams() *JobParamsBuilder {
	return &JobParamsBuilder{
		params: model.CreateJobParams{
			ID:           model.NewJobID(),
			SubmissionID: "sub-1",
			WebhookURL:   "https://app.example.com/hooks/llm",
			Payload: json.RawMessage(
				`{"submission_id":"sub-1","file_refs":[{"url":"https://files.example.com/a.pdf"}],"student_id":null,"metadata":{}}`,
			),
		},
	}
}

// WithID sets the job id.
func (b *JobParamsBuilder) WithID(id string) *JobParamsBuilder {
	b.params.ID = id
	return b
}

// WithSubmissionID sets the submission id.
func (b *JobParamsBuilder) WithSubmissionID(id string) *JobParamsBuilder {
	b.params.SubmissionID = id
	return b
}

// WithWebhookURL sets the webhook URL.
func (b *JobParamsBuilder) WithWebhookURL(u string) *JobParamsBuilder {
	b.params.WebhookURL = u
	return b
}

// WithPayload sets the payload.
func (b *JobParamsBuilder) WithPayload(payload string) *JobParamsBuilder {
	b.params.Payload = json.RawMessage(payload)
	return b
}

// Build returns the CreateJobParams.
func (b *JobParamsBuilder) Build() model.CreateJobParams {
	return b.params
}
