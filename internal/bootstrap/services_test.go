package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/data"
	"github.com/target/llm-relay/internal/domain/model"
)

func testAppConfig(processorURL string) *config.AppConfig {
	cfg := &config.AppConfig{
		IsDev: true,
		Database: config.DBConfig{
			Driver: config.DriverMemory,
		},
		HTTP: config.HTTPConfig{PublicBaseURL: "http://relay.test"},
		Upstream: config.UpstreamConfig{
			APIURL:         processorURL,
			RequestTimeout: 2 * time.Second,
		},
		Relay: config.RelayConfig{
			HMACSecret:     "test-secret",
			MaxAttempts:    1,
			BackoffInitial: time.Millisecond,
			BackoffMax:     time.Millisecond,
		},
	}
	cfg.Sanitize()
	return cfg
}

func newTestServices(t *testing.T, cfg *config.AppConfig) (*Services, *Store) {
	t.Helper()
	store, err := OpenStore(context.Background(), StoreOptions{DB: cfg.Database})
	require.NoError(t, err)

	svcs, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Store: store, Logger: slog.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svcs.Close() })
	return svcs, store
}

func TestNewServicesUsesMemoryLeasesWithoutRedis(t *testing.T) {
	svcs, _ := newTestServices(t, testAppConfig("http://llm.test"))

	assert.NotNil(t, svcs.Relay)
	assert.IsType(t, &data.MemoryLeaseStore{}, svcs.Guard)
	assert.False(t, svcs.Notifier.Enabled())
	assert.False(t, svcs.Metrics.Enabled())
}

func TestNewServicesRejectsMissingProcessorURL(t *testing.T) {
	cfg := testAppConfig("http://llm.test")
	cfg.Upstream.APIURL = ""

	store, err := OpenStore(context.Background(), StoreOptions{DB: cfg.Database})
	require.NoError(t, err)
	_, err = NewServices(context.Background(), &ServiceDeps{Config: cfg, Store: store})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processor client")
}

func TestBuildHandlerEndToEnd(t *testing.T) {
	var (
		mu            sync.Mutex
		webhookBodies []string
	)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env model.RelayEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err == nil {
			mu.Lock()
			webhookBodies = append(webhookBodies, env.JobID)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(webhook.Close)

	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(processor.Close)

	cfg := testAppConfig(processor.URL)
	svcs, store := newTestServices(t, cfg)
	server := httptest.NewServer(BuildHandler(&HTTPServerConfig{Config: cfg, Services: svcs, Store: store}))
	t.Cleanup(server.Close)

	body := `{"submission_id":"sub-1","file_refs":[{"url":"https://files.test/a.pdf"}],"webhook_url":"` +
		webhook.URL + `/hook"}`
	resp, err := http.Post(server.URL+"/v1/reviews", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var enq model.ReviewEnqueued
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&enq))
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, model.JobStatusQueued, enq.Status)

	resp, err = http.Post(server.URL+"/simulate-llm/"+enq.JobID, "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mu.Lock()
	assert.Equal(t, []string{enq.JobID}, webhookBodies)
	mu.Unlock()

	resp, err = http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, map[string]string{"database": "ok", "lease_store": "ok"}, ready.Checks)
}

func TestWaitForShutdownOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	err := waitForShutdown(shutdownConfig{
		ctx:     ctx,
		cancel:  cancel,
		errCh:   make(chan error),
		logger:  slog.Default(),
		signals: signals,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWaitForShutdownReturnsServerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	boom := errors.New("listen tcp: address in use")
	errCh <- boom

	srv := &http.Server{ReadHeaderTimeout: time.Second}
	err := waitForShutdown(shutdownConfig{
		ctx:        ctx,
		cancel:     cancel,
		httpServer: srv,
		errCh:      errCh,
		logger:     slog.Default(),
		signals:    make(chan os.Signal),
	})
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
