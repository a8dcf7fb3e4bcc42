// Package httpx provides the HTTP surface of the LLM relay.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/llm-relay/internal/domain/model"
	"github.com/target/llm-relay/internal/service"
)

// RelayHandlers serves the review, callback and job endpoints.
type RelayHandlers struct {
	Svc *service.RelayService
	// Secret verifies inbound callback signatures when VerifyCallbackSignature is set.
	Secret                  string
	VerifyCallbackSignature bool
	Logger                  *slog.Logger
}

// CreateReview handles POST /v1/reviews.
func (h *RelayHandlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReviewRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	out, err := h.Svc.CreateReview(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
