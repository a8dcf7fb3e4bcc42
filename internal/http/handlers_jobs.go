package httpx

import (
	"net/http"
	"strings"
)

// GetJob handles GET /v1/jobs/{id}.
func (h *RelayHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errMissingJobID})
		return
	}

	job, err := h.Svc.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
