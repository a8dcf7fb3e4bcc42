package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/target/llm-relay/internal/domain/model"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "i/o" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("dispatch: %w", context.DeadlineExceeded), ClassTimeout},
		{"canceled", context.Canceled, ClassCanceled},
		{"net timeout", fmt.Errorf("post: %w", timeoutErr{timeout: true}), ClassTimeout},
		{"net refused", &net.OpError{Op: "dial", Err: goerrors.New("connection refused")}, ClassNetwork},
		{"missing job", fmt.Errorf("update job status: %w", model.ErrJobNotFound), ClassNotFound},
		{"lease held", model.ErrDispatchInFlight, ClassInFlight},
		{"upstream 503", &model.UpstreamDispatchError{StatusCode: 503, Body: "busy"}, "http_5xx"},
		{
			"relay exhausted on 404",
			&model.RelayDeliveryError{Attempts: 6, Err: &model.UpstreamDispatchError{StatusCode: 404}},
			"http_4xx",
		},
		{"upstream transport", &model.UpstreamDispatchError{Err: goerrors.New("eof")}, ClassOther},
		{"plain", goerrors.New("boom"), ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
