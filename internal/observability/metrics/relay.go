// Package metrics emits the relay's standard counters and timings.
package metrics

import (
	"time"

	obserrors "github.com/target/llm-relay/internal/observability/errors"
	"github.com/target/llm-relay/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Stage names the step of the job lifecycle being measured.
type Stage string

const (
	StageDispatch Stage = "dispatch"
	StageCallback Stage = "callback"
	StageRelay    Stage = "relay"
)

// Event captures one lifecycle step for metric emission.
type Event struct {
	Stage    Stage
	Result   string
	Status   string
	Attempts int
	Duration time.Duration
	Err      error
}

// Emit records "<stage>.result" and, when known, "<stage>.duration" and "relay.attempts".
func Emit(sink statsd.Sink, ev Event) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": ev.Result}
	if ev.Status != "" {
		tags["status"] = ev.Status
	}
	if ev.Err != nil && ev.Result == ResultError {
		if class := obserrors.Classify(ev.Err); class != "" {
			tags["error_class"] = class
		}
	}

	prefix := string(ev.Stage)
	sink.Count(prefix+".result", 1, tags)
	if ev.Duration > 0 {
		sink.Timing(prefix+".duration", ev.Duration, cloneTags(tags))
	}
	if ev.Stage == StageRelay && ev.Attempts > 0 {
		sink.Count("relay.attempts", int64(ev.Attempts), cloneTags(tags))
	}
}

// ResultFor maps an error to ResultSuccess or ResultError.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func cloneTags(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
