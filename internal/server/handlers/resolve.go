package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/loclate/loclate/pkg/api"
)

// Resolve обрабатывает POST /api/v1/projects/{project}/resolve.
func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	projectID, actor, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req api.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.service.Resolve(r.Context(), projectID, actor, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
