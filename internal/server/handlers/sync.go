// Package handlers содержит HTTP обработчики API синхронизации.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/loclate/loclate/internal/server/middleware"
	"github.com/loclate/loclate/internal/server/sync"
	"github.com/loclate/loclate/pkg/api"
)

// SyncService определяет операции движка, нужные обработчикам.
type SyncService interface {
	Push(ctx context.Context, projectID, actor string, req api.PushRequest) (*api.PushResponse, error)
	Pull(ctx context.Context, projectID string, opts sync.PullOptions) (*api.PullResponse, error)
	Resolve(ctx context.Context, projectID, actor string, req api.ResolveRequest) (*api.ResolveResponse, error)
	ListHistory(ctx context.Context, projectID string, page, pageSize int) (*api.HistoryListResponse, error)
	GetHistoryDetail(ctx context.Context, projectID, id string) (*api.HistoryDetailResponse, error)
	Revert(ctx context.Context, projectID, actor, historyID string, req api.RevertRequest) (*api.RevertResponse, error)
}

// SyncHandler exposes the sync engine over HTTP.
type SyncHandler struct {
	logger  *slog.Logger
	service SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(logger *slog.Logger, service SyncService) *SyncHandler {
	return &SyncHandler{logger: logger, service: service}
}

// errorResponse тело ответа с ошибкой.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *SyncHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError отображает ошибки движка на HTTP статусы:
// ErrValidation — 400, ErrNotFound — 404, остальное — 500 без деталей.
func (h *SyncHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sync.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, sync.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// requestScope извлекает проект из пути и актора из контекста.
func (h *SyncHandler) requestScope(w http.ResponseWriter, r *http.Request) (projectID, actor string, ok bool) {
	projectID = mux.Vars(r)["project"]
	actor = middleware.ActorFromContext(r.Context())
	if actor == "" {
		h.logger.Error("actor not found in context", "path", r.URL.Path)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", "", false
	}
	return projectID, actor, true
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return v, nil
}

func querySince(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, errors.New("must be an RFC 3339 timestamp")
	}
	return &ts, nil
}
