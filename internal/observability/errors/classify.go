// Package errors classifies errors into short tags for metrics and notices.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"strconv"

	"github.com/target/llm-relay/internal/domain/model"
)

// Error classes shared by metric tags and relay failure notices.
const (
	ClassTimeout  = "timeout"
	ClassCanceled = "canceled"
	ClassNotFound = "job_not_found"
	ClassNetwork  = "network"
	ClassInFlight = "dispatch_in_flight"
	ClassOther    = "other"
)

// statusCoder is implemented by errors that carry a peer's HTTP response status.
type statusCoder interface {
	HTTPStatus() int
}

// Classify maps err to a low-cardinality class such as "timeout" or "http_5xx".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var netErr net.Error
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.Is(err, model.ErrJobNotFound):
		return ClassNotFound
	case goerrors.Is(err, model.ErrDispatchInFlight):
		return ClassInFlight
	case goerrors.As(err, &netErr):
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	var sc statusCoder
	if goerrors.As(err, &sc) && sc.HTTPStatus() > 0 {
		return "http_" + strconv.Itoa(sc.HTTPStatus()/100) + "xx"
	}
	return ClassOther
}
