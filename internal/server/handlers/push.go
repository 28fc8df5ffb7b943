package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/loclate/loclate/pkg/api"
)

// Push обрабатывает POST /api/v1/projects/{project}/push.
// Конфликты не делают запрос ошибочным: ответ 200 несет и принятые
// изменения, и список конфликтов.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	projectID, actor, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req api.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.service.Push(r.Context(), projectID, actor, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
