package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/observability/notify"
)

type capture struct {
	mu       sync.Mutex
	received []notify.RelayFailurePayload
}

func (c *capture) sink() notify.Sink {
	return notify.SinkFunc(func(_ context.Context, p notify.RelayFailurePayload) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.received = append(c.received, p)
		return nil
	})
}

func TestServiceRelayFailed(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var a, b capture
	svc := NewService(Options{
		Sinks: []SinkRegistration{{Name: "a", Sink: a.sink()}, {Name: "b", Sink: b.sink()}, {Name: "nil"}},
		Now:   func() time.Time { return fixed },
	})
	if !svc.Enabled() {
		t.Fatal("expected Enabled() with sinks")
	}

	job := &model.Job{
		ID:           "job_abc",
		SubmissionID: "s1",
		WebhookURL:   "https://hook.example/x",
		Status:       model.JobStatusDone,
	}
	svc.RelayFailed(ctx, job, &model.RelayDeliveryError{Attempts: 6, Err: errors.New("webhook returned 503")})

	for name, c := range map[string]*capture{"a": &a, "b": &b} {
		if len(c.received) != 1 {
			t.Fatalf("sink %s: expected 1 payload, got %d", name, len(c.received))
		}
		p := c.received[0]
		if p.JobID != "job_abc" || p.SubmissionID != "s1" || p.Status != "done" {
			t.Fatalf("sink %s: unexpected payload %+v", name, p)
		}
		if p.Attempts != 6 {
			t.Fatalf("sink %s: expected attempts 6, got %d", name, p.Attempts)
		}
		if p.Severity != notify.SeverityCritical {
			t.Fatalf("sink %s: expected critical severity, got %s", name, p.Severity)
		}
		if !p.OccurredAt.Equal(fixed) {
			t.Fatalf("sink %s: unexpected timestamp %v", name, p.OccurredAt)
		}
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	svc.RelayFailed(context.Background(), &model.Job{ID: "job_1"}, errors.New("boom"))
	svc.RelayFailed(context.Background(), nil, errors.New("boom"))
}

func TestServiceLogsErrors(t *testing.T) {
	var ok capture
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{Name: "fail", Sink: notify.SinkFunc(func(context.Context, notify.RelayFailurePayload) error {
				return errors.New("boom")
			})},
			{Name: "ok", Sink: ok.sink()},
		},
	})

	svc.Notify(context.Background(), notify.RelayFailurePayload{JobID: "job_1"})
	if len(ok.received) != 1 {
		t.Fatal("a failing sink must not block the others")
	}
}
