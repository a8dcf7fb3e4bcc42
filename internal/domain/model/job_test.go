package model

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobID(t *testing.T) {
	re := regexp.MustCompile(`^job_[0-9a-f]{24}$`)
	seen := make(map[string]struct{})
	for range 100 {
		id := NewJobID()
		require.Regexp(t, re, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		status  JobStatus
		result  json.RawMessage
		wantErr bool
	}{
		{name: "done with result", status: JobStatusDone, result: json.RawMessage(`{"score":1}`)},
		{name: "failed with error", status: JobStatusFailed, result: ErrorResult("boom")},
		{name: "back to queued", status: JobStatusQueued, result: json.RawMessage(`{}`), wantErr: true},
		{name: "unknown status", status: JobStatus("processing"), result: json.RawMessage(`{}`), wantErr: true},
		{name: "terminal without result", status: JobStatusDone, wantErr: true},
		{name: "terminal with null result", status: JobStatusFailed, result: json.RawMessage(`null`), wantErr: true},
		{name: "invalid json", status: JobStatusDone, result: json.RawMessage(`{`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.status, tt.result)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCallbackRequest_Outcome(t *testing.T) {
	msg := "model timeout"
	empty := ""
	notOK := false

	tests := []struct {
		name       string
		req        CallbackRequest
		wantStatus JobStatus
		wantResult string
	}{
		{
			name:       "ok keeps result",
			req:        SucceededCallback(json.RawMessage(`{"score":0.9}`)),
			wantStatus: JobStatusDone,
			wantResult: `{"score":0.9}`,
		},
		{
			name:       "ok without result stores empty object",
			req:        SucceededCallback(nil),
			wantStatus: JobStatusDone,
			wantResult: `{}`,
		},
		{
			name:       "failure with message",
			req:        FailedCallback(msg),
			wantStatus: JobStatusFailed,
			wantResult: `{"error":"model timeout"}`,
		},
		{
			name:       "failure without message",
			req:        FailedCallback(""),
			wantStatus: JobStatusFailed,
			wantResult: `{"error":"unknown"}`,
		},
		{
			name:       "failure with empty message",
			req:        CallbackRequest{OK: &notOK, Error: &empty, Result: json.RawMessage(`{"x":1}`)},
			wantStatus: JobStatusFailed,
			wantResult: `{"error":"unknown"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, result := tt.req.Outcome()
			assert.Equal(t, tt.wantStatus, status)
			assert.JSONEq(t, tt.wantResult, string(result))
		})
	}
}

func TestCallbackRequest_Validate(t *testing.T) {
	var missing CallbackRequest
	require.NoError(t, json.Unmarshal([]byte(`{"result":{"score":0.91}}`), &missing))
	require.EqualError(t, missing.Validate(), "ok is required")

	var explicit CallbackRequest
	require.NoError(t, json.Unmarshal([]byte(`{"ok":false}`), &explicit))
	require.NoError(t, explicit.Validate())
	status, _ := explicit.Outcome()
	assert.Equal(t, JobStatusFailed, status)

	require.NoError(t, SucceededCallback(nil).Validate())
}

func TestCreateReviewRequest_Validate(t *testing.T) {
	valid := func() CreateReviewRequest {
		return CreateReviewRequest{
			SubmissionID: "sub-1",
			FileRefs:     []FileRef{{URL: "https://files.example.com/a.pdf", Pages: []int{1, 2}}},
			WebhookURL:   "https://app.example.com/hooks/llm",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateReviewRequest)
		errMsg string
	}{
		{name: "valid", mutate: func(*CreateReviewRequest) {}},
		{name: "empty file refs allowed", mutate: func(r *CreateReviewRequest) { r.FileRefs = []FileRef{} }},
		{name: "missing submission", mutate: func(r *CreateReviewRequest) { r.SubmissionID = " " }, errMsg: "submission_id is required"},
		{name: "missing file refs", mutate: func(r *CreateReviewRequest) { r.FileRefs = nil }, errMsg: "file_refs is required"},
		{name: "bad file url", mutate: func(r *CreateReviewRequest) { r.FileRefs[0].URL = "ftp://x/y" }, errMsg: "file_refs[0].url"},
		{name: "missing webhook", mutate: func(r *CreateReviewRequest) { r.WebhookURL = "" }, errMsg: "webhook_url"},
		{name: "webhook without host", mutate: func(r *CreateReviewRequest) { r.WebhookURL = "http://" }, errMsg: "webhook_url"},
		{name: "metadata not object", mutate: func(r *CreateReviewRequest) { r.Metadata = json.RawMessage(`[1]`) }, errMsg: "metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCreateReviewRequest_PayloadDefaultsMetadata(t *testing.T) {
	r := CreateReviewRequest{
		SubmissionID: "sub-1",
		FileRefs:     []FileRef{{URL: "https://files.example.com/a.pdf"}},
		WebhookURL:   "https://app.example.com/hook",
	}

	b, err := json.Marshal(r.Payload())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"submission_id":"sub-1","file_refs":[{"url":"https://files.example.com/a.pdf"}],"student_id":null,"metadata":{}}`,
		string(b))
}

func TestEnvelopeFor(t *testing.T) {
	done := &Job{ID: "job_abc", SubmissionID: "s1", Status: JobStatusDone, Result: json.RawMessage(`{"score":0.9}`)}
	b, err := json.Marshal(EnvelopeFor(done))
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id":"job_abc","submission_id":"s1","ok":true,"result":{"score":0.9}}`, string(b))

	queued := &Job{ID: "job_q", SubmissionID: "s2", Status: JobStatusQueued}
	b, err = json.Marshal(EnvelopeFor(queued))
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id":"job_q","submission_id":"s2","ok":false,"result":null}`, string(b))
}

func TestErrorTypes(t *testing.T) {
	cause := errors.New("connection refused")

	up := &UpstreamDispatchError{Err: cause}
	assert.Equal(t, "connection refused", up.Error())
	assert.ErrorIs(t, up, cause)

	up = &UpstreamDispatchError{StatusCode: 500, Body: "boom"}
	assert.Equal(t, "upstream returned 500: boom", up.Error())

	rd := &RelayDeliveryError{Attempts: 3, Err: cause}
	assert.Contains(t, rd.Error(), "3 attempt(s)")
	assert.ErrorIs(t, rd, cause)
}
