package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/domain/relay"
	ierrors "github.com/target/llm-relay/internal/errors"
)

var (
	errNotFound      = errors.New("Not found")          //nolint:staticcheck // public response text
	errUpstream      = errors.New("Upstream LLM error") //nolint:staticcheck // public response text
	errInternal      = errors.New("internal server error")
	errBadSignature  = errors.New("callback signature verification failed")
	errMissingJobID  = errors.New("job id is required")
	errDispatchTaken = errors.New("job is already being dispatched")
)

// errorParamsFor maps service errors onto HTTP status codes and public messages.
// Internal details are never echoed for 5xx responses other than the upstream code.
func errorParamsFor(err error) ErrorParams {
	var upErr *model.UpstreamDispatchError
	switch {
	case errors.As(err, &upErr):
		return ErrorParams{Code: http.StatusBadGateway, ErrCode: "upstream_error", Err: errUpstream}
	case errors.Is(err, model.ErrJobNotFound), ierrors.IsNotFound(err):
		return ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound}
	case ierrors.IsValidation(err):
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_error", Err: err}
	case errors.Is(err, model.ErrDispatchInFlight):
		return ErrorParams{Code: http.StatusConflict, ErrCode: "dispatch_in_flight", Err: errDispatchTaken}
	case errors.Is(err, model.ErrInvalidTransition):
		return ErrorParams{Code: http.StatusConflict, ErrCode: "invalid_transition", Err: err}
	case errors.Is(err, relay.ErrMissingSignature), errors.Is(err, relay.ErrInvalidSignature):
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_signature", Err: errBadSignature}
	case ierrors.IsTimeout(err):
		return ErrorParams{Code: http.StatusGatewayTimeout, ErrCode: "timeout", Err: err}
	default:
		return ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errInternal}
	}
}

// writeServiceError logs 5xx failures and writes the mapped error response.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	p := errorParamsFor(err)
	if p.Code >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", p.Code,
			"error", err,
		)
	}
	WriteError(w, p)
}
