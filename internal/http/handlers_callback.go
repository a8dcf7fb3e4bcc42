package httpx

import (
	"net/http"
	"strings"

	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/domain/relay"
)

// Callback handles POST /v1/llm/callback/{id}.
// Returns 200 when the outcome was relayed and 202 when it was stored but the relay failed.
func (h *RelayHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errMissingJobID})
		return
	}

	body, ok := ReadBody(w, r)
	if !ok {
		return
	}
	if h.VerifyCallbackSignature {
		if err := relay.Verify(h.Secret, body, r.Header.Get(relay.SignatureHeader)); err != nil {
			if h.Logger != nil {
				h.Logger.WarnContext(r.Context(), "rejected callback signature", "job_id", id, "error", err)
			}
			writeServiceError(w, r, h.Logger, err)
			return
		}
	}

	var cb model.CallbackRequest
	if !DecodeJSONBytes(w, body, &cb) {
		return
	}

	out, err := h.Svc.HandleCallback(r.Context(), id, cb)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeCallbackOutcome(w, out)
}

// Simulate handles POST /simulate-llm/{id}; registered only in dev mode.
func (h *RelayHandlers) Simulate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errMissingJobID})
		return
	}

	out, err := h.Svc.SimulateCallback(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeCallbackOutcome(w, out)
}

func writeCallbackOutcome(w http.ResponseWriter, out *model.CallbackOutcome) {
	code := http.StatusOK
	if !out.Relayed {
		code = http.StatusAccepted
	}
	WriteJSON(w, code, out)
}
