package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/target/llm-relay/internal/observability/statsd"
)

func TestEmitRelayWithError(t *testing.T) {
	var rec statsd.Recorder
	Emit(&rec, Event{
		Stage:    StageRelay,
		Result:   ResultError,
		Status:   "done",
		Attempts: 6,
		Duration: time.Second,
		Err:      context.DeadlineExceeded,
	})

	results := rec.Find("relay.result")
	if len(results) != 1 {
		t.Fatalf("expected one relay.result, got %d", len(results))
	}
	if results[0].Tags["error_class"] != "timeout" || results[0].Tags["status"] != "done" {
		t.Fatalf("unexpected tags: %v", results[0].Tags)
	}
	if a := rec.Find("relay.attempts"); len(a) != 1 || a[0].Value != 6 {
		t.Fatalf("unexpected attempts: %+v", a)
	}
	if d := rec.Find("relay.duration"); len(d) != 1 {
		t.Fatalf("expected relay.duration, got %+v", d)
	}
}

func TestEmitDispatchSuccess(t *testing.T) {
	var rec statsd.Recorder
	Emit(&rec, Event{Stage: StageDispatch, Result: ResultFor(nil)})

	samples := rec.Samples()
	if len(samples) != 1 {
		t.Fatalf("expected only dispatch.result, got %+v", samples)
	}
	if _, ok := samples[0].Tags["error_class"]; ok {
		t.Fatal("error_class should be absent on success")
	}
}

func TestEmitNilSink(t *testing.T) {
	Emit(nil, Event{Stage: StageCallback, Result: ResultFor(errors.New("x"))})
}
