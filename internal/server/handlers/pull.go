package handlers

import (
	"net/http"

	"github.com/loclate/loclate/internal/server/sync"
)

// Pull обрабатывает GET /api/v1/projects/{project}/pull.
// Параметры: since (RFC 3339, опционально — инкрементальный режим),
// page и pageSize для постраничной выдачи.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	since, err := querySince(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "since: " + err.Error()})
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page: " + err.Error()})
		return
	}
	pageSize, err := queryInt(r, "pageSize")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pageSize: " + err.Error()})
		return
	}

	resp, err := h.service.Pull(r.Context(), projectID, sync.PullOptions{
		Since:    since,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
