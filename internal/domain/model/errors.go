package model

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when no job exists for the given id.
	ErrJobNotFound = errors.New("job not found")
	// ErrDuplicateJobID is returned when a job id is already taken.
	ErrDuplicateJobID = errors.New("duplicate job id")
	// ErrInvalidTransition is returned for status updates the state machine forbids.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrDispatchInFlight is returned when another dispatch for the same job holds the lease.
	ErrDispatchInFlight = errors.New("dispatch already in flight")
)

// UpstreamDispatchError reports that the processor rejected or never received a job.
type UpstreamDispatchError struct {
	// StatusCode is the processor response status, zero for transport failures.
	StatusCode int
	// Body is a truncated copy of the processor response body.
	Body string
	Err  error
}

func (e *UpstreamDispatchError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "upstream dispatch failed"
}

func (e *UpstreamDispatchError) Unwrap() error { return e.Err }

// HTTPStatus returns the processor response status, zero for transport failures.
func (e *UpstreamDispatchError) HTTPStatus() int { return e.StatusCode }

// RelayDeliveryError reports that the webhook relay failed after every attempt.
type RelayDeliveryError struct {
	Attempts int
	Err      error
}

func (e *RelayDeliveryError) Error() string {
	return fmt.Sprintf("relay failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *RelayDeliveryError) Unwrap() error { return e.Err }
