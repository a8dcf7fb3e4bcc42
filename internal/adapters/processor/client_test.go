package processor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llm-relay/internal/domain/model"
)

func callbackFor(jobID string) string {
	return "http://relay.local/v1/llm/callback/" + jobID
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{CallbackURL: callbackFor})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://llm"})
	require.Error(t, err)
}

func TestClient_Dispatch(t *testing.T) {
	var gotBody model.DispatchRequest
	var gotAuth, gotPath, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "k-123", CallbackURL: callbackFor})
	require.NoError(t, err)

	err = c.Dispatch(t.Context(), "job_abc", json.RawMessage(`{"submission_id":"s1"}`))
	require.NoError(t, err)

	assert.Equal(t, "/v1/reviews", gotPath)
	assert.Equal(t, "Bearer k-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "job_abc", gotBody.JobID)
	assert.Equal(t, "http://relay.local/v1/llm/callback/job_abc", gotBody.CallbackURL)
	assert.JSONEq(t, `{"submission_id":"s1"}`, string(gotBody.Payload))
}

func TestClient_DispatchWithoutKeyOmitsAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, CallbackURL: callbackFor})
	require.NoError(t, err)
	require.NoError(t, c.Dispatch(t.Context(), "job_1", json.RawMessage(`{}`)))
	assert.Empty(t, gotAuth)
}

func TestClient_DispatchUpstreamError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, CallbackURL: callbackFor})
	require.NoError(t, err)

	err = c.Dispatch(t.Context(), "job_1", json.RawMessage(`{}`))
	require.Error(t, err)

	var upErr *model.UpstreamDispatchError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, upErr.Error(), "model overloaded")
	assert.Equal(t, 1, calls, "dispatch must not retry")
}

func TestClient_DispatchTruncatesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, CallbackURL: callbackFor})
	require.NoError(t, err)

	err = c.Dispatch(t.Context(), "job_1", json.RawMessage(`{}`))
	var upErr *model.UpstreamDispatchError
	require.True(t, errors.As(err, &upErr))
	assert.Len(t, upErr.Body, maxErrorBody)
}

func TestClient_DispatchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{BaseURL: srv.URL, CallbackURL: callbackFor, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Dispatch(t.Context(), "job_1", json.RawMessage(`{}`))
	var upErr *model.UpstreamDispatchError
	require.True(t, errors.As(err, &upErr))
	assert.Zero(t, upErr.StatusCode)
}

func TestClient_DispatchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, CallbackURL: callbackFor})
	require.NoError(t, err)

	err = c.Dispatch(t.Context(), "job_1", json.RawMessage(`{}`))
	var upErr *model.UpstreamDispatchError
	require.True(t, errors.As(err, &upErr))
	assert.Contains(t, upErr.Error(), "dispatch request failed")
}
