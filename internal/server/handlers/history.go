package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/loclate/loclate/pkg/api"
)

// ListHistory обрабатывает GET /api/v1/projects/{project}/history.
func (h *SyncHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.requestScope(w, r)
	if !ok {
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

	resp, err := h.service.ListHistory(r.Context(), projectID, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetHistory обрабатывает GET /api/v1/projects/{project}/history/{id}.
func (h *SyncHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetHistoryDetail(r.Context(), projectID, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Revert обрабатывает POST /api/v1/projects/{project}/history/{id}/revert.
// Тело запроса опционально: пустое тело означает откат со значениями
// по умолчанию.
func (h *SyncHandler) Revert(w http.ResponseWriter, r *http.Request) {
	projectID, actor, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req api.RevertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.service.Revert(r.Context(), projectID, actor, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
